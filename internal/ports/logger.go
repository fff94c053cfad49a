package ports

import "github.com/bft-labs/carcast/pkg/log"

// Logger is the structured logger used across the application layer.
type Logger = log.Logger

// Field is a structured log field.
type Field = log.Field

// Field constructors re-exported for the application layer.
var (
	String   = log.String
	Int      = log.Int
	Uint32   = log.Uint32
	Float64  = log.Float64
	Duration = log.Duration
	Hex      = log.Hex
	Err      = log.Err
)
