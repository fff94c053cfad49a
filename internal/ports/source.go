package ports

import "github.com/bft-labs/carcast/internal/domain"

// ReadingSource supplies readings to connection handlers.
// A single source may be shared by every handler and must be safe for concurrent use.
type ReadingSource interface {
	Next() domain.Reading
}
