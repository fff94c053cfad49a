package wire

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/bft-labs/carcast/internal/domain"
)

const (
	// WordSize is the alignment unit of every payload.
	WordSize = 8

	// RecordSize is the encoded size of a reading before padding.
	RecordSize = 16
)

// ByteOrder is the byte order of the length prefix and of the record fields.
var ByteOrder = binary.LittleEndian

// EncodeReading serializes r into the fixed record layout: speed then yaw rate.
func EncodeReading(r domain.Reading) []byte {
	b := make([]byte, RecordSize)
	ByteOrder.PutUint64(b[0:8], math.Float64bits(r.Speed))
	ByteOrder.PutUint64(b[8:16], math.Float64bits(r.YawRate))
	return b
}

// PaddedLen returns the smallest multiple of WordSize that is >= n.
func PaddedLen(n int) int {
	return (n + WordSize - 1) / WordSize * WordSize
}

// Pad appends zero bytes to b until its length is a multiple of WordSize.
// b is returned unchanged when it is already aligned.
func Pad(b []byte) []byte {
	n := PaddedLen(len(b))
	if n == len(b) {
		return b
	}
	out := make([]byte, n)
	copy(out, b)
	return out
}

// Encode builds the frame for r. Encoding a reading cannot fail.
func Encode(r domain.Reading) domain.Frame {
	return domain.Frame{Payload: Pad(EncodeReading(r))}
}

// AppendFrame appends the wire representation of f (prefix and payload) to dst.
func AppendFrame(dst []byte, f domain.Frame) []byte {
	dst = ByteOrder.AppendUint32(dst, f.Length())
	return append(dst, f.Payload...)
}

// WriteFrame writes the length prefix followed by the payload of f to w in a
// single Write call. It returns the number of bytes written, which is
// f.Size() on success.
func WriteFrame(w io.Writer, f domain.Frame) (int, error) {
	return w.Write(AppendFrame(make([]byte, 0, f.Size()), f))
}
