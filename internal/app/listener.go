package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bft-labs/carcast/internal/domain"
	"github.com/bft-labs/carcast/internal/ports"
)

// Listener accepts client connections and runs one Handler per connection.
// The listening socket is owned by the Listener alone.
type Listener struct {
	ln       net.Listener
	source   ports.ReadingSource
	logger   ports.Logger
	observer ports.ConnObserver
	cfg      HandlerConfig

	wg      sync.WaitGroup
	active  atomic.Int64
	closing atomic.Bool
}

// Listen binds addr with SO_REUSEADDR so a restarted process can rebind at once.
// A bind failure is returned as is; the caller cannot proceed without a socket.
func Listen(ctx context.Context, addr string, source ports.ReadingSource, logger ports.Logger, observer ports.ConnObserver, cfg HandlerConfig) (*Listener, error) {
	if observer == nil {
		observer = ports.NopObserver{}
	}

	lc := net.ListenConfig{Control: reuseAddrControl}
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}

	return &Listener{
		ln:       ln,
		source:   source,
		logger:   logger,
		observer: observer,
		cfg:      cfg,
	}, nil
}

// Addr returns the bound address.
func (l *Listener) Addr() net.Addr {
	return l.ln.Addr()
}

// Active returns the number of connections whose handler is still running.
func (l *Listener) Active() int {
	return int(l.active.Load())
}

// Close closes the listening socket. Running handlers are not affected.
func (l *Listener) Close() error {
	l.closing.Store(true)
	return l.ln.Close()
}

// Serve accepts connections until ctx is cancelled or the listener is closed.
// Each connection gets its own goroutine; Serve never waits on a handler.
// Transient accept errors are logged and retried with backoff. Serve returns
// nil after cancellation or Close, and the accept error otherwise.
func (l *Listener) Serve(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { _ = l.Close() })
	defer stop()
	defer l.ln.Close()

	l.logger.Info("listening", ports.String("addr", l.ln.Addr().String()))

	bo := newBackoff(DefaultAcceptBackoffInitial, DefaultAcceptBackoffMax)
	for {
		conn, err := l.ln.Accept()
		if err != nil {
			if ctx.Err() != nil || l.closing.Load() {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return fmt.Errorf("accept: %w", err)
			}

			l.logger.Error("accept failed",
				ports.Err(err),
				ports.Duration("retry_in", bo.Current()),
			)
			l.observer.OnAcceptError(err)
			if !bo.Wait(ctx) {
				return nil
			}
			continue
		}
		bo.Reset()

		l.wg.Add(1)
		l.active.Add(1)
		go func() {
			defer l.wg.Done()
			defer l.active.Add(-1)

			h := NewHandler(conn, l.source, l.logger, l.observer, l.cfg)
			_ = h.Run(ctx)
		}()
	}
}

// Wait blocks until every handler started by Serve has returned or timeout expires.
func (l *Listener) Wait(timeout time.Duration) error {
	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return domain.ErrShutdownTimeout
	}
}
