package wire

import (
	"fmt"
	"io"
	"math"

	"github.com/bft-labs/carcast/internal/domain"
)

// DefaultMaxFrameSize is the largest payload a receiver accepts by default.
const DefaultMaxFrameSize = 4096

// ReadFrame reads one frame from r: the length prefix and exactly that many
// payload bytes. A zero length or a length above max yields domain.ErrFrameLength.
func ReadFrame(r io.Reader, max uint32) (domain.Frame, error) {
	var prefix [domain.PrefixSize]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return domain.Frame{}, err
	}

	n := ByteOrder.Uint32(prefix[:])
	if n == 0 || n > max {
		return domain.Frame{}, fmt.Errorf("%w: %d (max %d)", domain.ErrFrameLength, n, max)
	}

	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return domain.Frame{}, fmt.Errorf("read payload: %w", err)
	}
	return domain.Frame{Payload: payload}, nil
}

// DecodeReading reads the record fields from the start of payload.
// Bytes past the record are treated as padding and ignored.
func DecodeReading(payload []byte) (domain.Reading, error) {
	if len(payload) < RecordSize {
		return domain.Reading{}, fmt.Errorf("%w: %d bytes", domain.ErrFrameTooShort, len(payload))
	}
	return domain.Reading{
		Speed:   math.Float64frombits(ByteOrder.Uint64(payload[0:8])),
		YawRate: math.Float64frombits(ByteOrder.Uint64(payload[8:16])),
	}, nil
}
