package ports

import "time"

// ConnObserver receives events from the listener and the connection handlers.
// Methods are called synchronously from the calling goroutine and must return quickly.
type ConnObserver interface {
	// OnConnectionOpened is called after a connection is accepted.
	OnConnectionOpened(remote string)

	// OnFrameSent is called after a complete frame has been written.
	OnFrameSent(remote string, bytes int, took time.Duration)

	// OnConnectionClosed is called once per connection after its socket is closed.
	// cause is nil when the connection was closed by shutdown.
	OnConnectionClosed(remote string, frames int, cause error)

	// OnAcceptError is called for every failed accept that does not stop the listener.
	OnAcceptError(err error)
}

// NopObserver ignores all events.
type NopObserver struct{}

func (NopObserver) OnConnectionOpened(string)              {}
func (NopObserver) OnFrameSent(string, int, time.Duration) {}
func (NopObserver) OnConnectionClosed(string, int, error)  {}
func (NopObserver) OnAcceptError(error)                    {}

// Observers fans events out to several observers in order.
type Observers []ConnObserver

func (o Observers) OnConnectionOpened(remote string) {
	for _, obs := range o {
		obs.OnConnectionOpened(remote)
	}
}

func (o Observers) OnFrameSent(remote string, bytes int, took time.Duration) {
	for _, obs := range o {
		obs.OnFrameSent(remote, bytes, took)
	}
}

func (o Observers) OnConnectionClosed(remote string, frames int, cause error) {
	for _, obs := range o {
		obs.OnConnectionClosed(remote, frames, cause)
	}
}

func (o Observers) OnAcceptError(err error) {
	for _, obs := range o {
		obs.OnAcceptError(err)
	}
}
