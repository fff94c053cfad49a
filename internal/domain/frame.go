package domain

// PrefixSize is the size in bytes of the length prefix preceding every payload.
const PrefixSize = 4

// Frame is the unit placed on the wire: a 4-byte length prefix followed by
// Payload. Payload is already padded with zero bytes to a multiple of 8, and
// the prefix carries the padded length, not the record length.
type Frame struct {
	Payload []byte
}

// Length returns the value written as the length prefix.
func (f Frame) Length() uint32 {
	return uint32(len(f.Payload))
}

// Size returns the total number of bytes the frame occupies on the wire.
func (f Frame) Size() int {
	return PrefixSize + len(f.Payload)
}
