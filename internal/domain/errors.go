package domain

import "errors"

// Domain errors represent error conditions in the carcast domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrAlreadyRunning is returned when Start() is called on a running instance.
	ErrAlreadyRunning = errors.New("carcast: already running")

	// ErrNotRunning is returned when Stop() is called on a stopped instance.
	ErrNotRunning = errors.New("carcast: not running")

	// ErrShutdownTimeout is returned when connection handlers do not exit in time.
	ErrShutdownTimeout = errors.New("carcast: shutdown timeout")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("carcast: invalid configuration")

	// ErrFrameTooShort is returned when a payload is shorter than the reading record.
	ErrFrameTooShort = errors.New("carcast: frame payload too short")

	// ErrFrameLength is returned when a length prefix is zero or exceeds the receiver limit.
	ErrFrameLength = errors.New("carcast: invalid frame length")
)
