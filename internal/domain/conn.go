package domain

// ConnState is the state of a single client connection.
// A connection starts in ConnRunning and ends in ConnClosed; there is no way back.
type ConnState int

const (
	ConnRunning ConnState = iota
	ConnClosed
)

// String returns a human-readable representation of the state.
func (s ConnState) String() string {
	switch s {
	case ConnRunning:
		return "Running"
	case ConnClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}
