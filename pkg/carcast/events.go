package carcast

import (
	"time"

	"github.com/bft-labs/carcast/internal/app"
)

// State represents the lifecycle state of a Server.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
	StateCrashed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	return app.State(s).String()
}

// StateChangeEvent describes a lifecycle transition.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// ConnectionEvent describes a client connection opening or closing.
type ConnectionEvent struct {
	Remote string

	// Frames and Err are only set when the connection closed.
	// Err is nil when the connection was closed by shutdown.
	Frames int
	Err    error
}

// EventHandler receives notifications from a Server.
type EventHandler interface {
	OnStateChange(StateChangeEvent)
	OnConnectionOpened(ConnectionEvent)
	OnConnectionClosed(ConnectionEvent)
}

// eventEmitterWrapper adapts EventHandler to the internal emitter and observer interfaces.
type eventEmitterWrapper struct {
	handler EventHandler
}

func (e *eventEmitterWrapper) OnStateChange(previous, current app.State, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnStateChange(StateChangeEvent{
		Previous: State(previous),
		Current:  State(current),
		Reason:   reason,
	})
}

func (e *eventEmitterWrapper) OnConnectionOpened(remote string) {
	if e.handler == nil {
		return
	}
	e.handler.OnConnectionOpened(ConnectionEvent{Remote: remote})
}

func (e *eventEmitterWrapper) OnFrameSent(string, int, time.Duration) {}

func (e *eventEmitterWrapper) OnConnectionClosed(remote string, frames int, cause error) {
	if e.handler == nil {
		return
	}
	e.handler.OnConnectionClosed(ConnectionEvent{Remote: remote, Frames: frames, Err: cause})
}

func (e *eventEmitterWrapper) OnAcceptError(error) {}

// BaseEventHandler implements EventHandler with no-op methods.
// Embed it to handle only the events you care about.
type BaseEventHandler struct{}

func (BaseEventHandler) OnStateChange(StateChangeEvent)     {}
func (BaseEventHandler) OnConnectionOpened(ConnectionEvent) {}
func (BaseEventHandler) OnConnectionClosed(ConnectionEvent) {}
