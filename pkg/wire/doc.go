// Package wire implements the carcast frame format.
//
// Every frame sent from server to client has the layout:
//
//	bytes[0:4]   length prefix, uint32 little-endian, value N
//	bytes[4:4+N] padded payload, N bytes, N a multiple of 8
//
// The payload starts with a fixed, versionless record of two IEEE-754
// float64 values in little-endian order, speed first and yaw rate second,
// followed by zero bytes up to the next 8-byte boundary. The record is 16
// bytes long, so in practice no padding is appended, but encoders and
// decoders both handle padding so the record can grow without touching the
// framing.
//
// The prefix carries the padded length. A decoder therefore has to know the
// record schema to locate field boundaries; trailing padding is ignored.
//
// # Usage
//
// Encoding and writing a frame:
//
//	f := wire.Encode(domain.Reading{Speed: 42.5, YawRate: -1.25})
//	if _, err := wire.WriteFrame(conn, f); err != nil {
//	    return err
//	}
//
// Reading a frame back:
//
//	f, err := wire.ReadFrame(conn, wire.DefaultMaxFrameSize)
//	if err != nil {
//	    return err
//	}
//	r, err := wire.DecodeReading(f.Payload)
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
//
// See version.go for version constants that can be used programmatically.
package wire
