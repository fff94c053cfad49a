package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/bft-labs/carcast/internal/domain"
	"github.com/bft-labs/carcast/internal/ports"
	"github.com/bft-labs/carcast/pkg/wire"
)

// DefaultSendInterval is the pause between two frames on one connection.
const DefaultSendInterval = 2 * time.Second

// HandlerConfig holds the per-connection settings shared by all handlers.
type HandlerConfig struct {
	// Interval returns the current send interval. It is consulted before
	// every pause, so changes apply to running connections on their next tick.
	Interval func() time.Duration

	// WriteTimeout bounds a single frame write. Zero disables the deadline,
	// in which case a client that never reads stalls only its own handler.
	WriteTimeout time.Duration

	// LogFrames enables debug logging of each frame's raw bytes.
	LogFrames bool
}

func (c HandlerConfig) interval() time.Duration {
	if c.Interval == nil {
		return DefaultSendInterval
	}
	if d := c.Interval(); d > 0 {
		return d
	}
	return DefaultSendInterval
}

// Handler owns one accepted connection and runs its send loop.
// No other component reads from or writes to the connection.
type Handler struct {
	conn     net.Conn
	remote   string
	source   ports.ReadingSource
	logger   ports.Logger
	observer ports.ConnObserver
	cfg      HandlerConfig

	state  atomic.Int32
	frames int
}

// NewHandler creates a handler for conn in the Running state.
func NewHandler(conn net.Conn, source ports.ReadingSource, logger ports.Logger, observer ports.ConnObserver, cfg HandlerConfig) *Handler {
	if observer == nil {
		observer = ports.NopObserver{}
	}
	h := &Handler{
		conn:     conn,
		remote:   conn.RemoteAddr().String(),
		source:   source,
		logger:   logger,
		observer: observer,
		cfg:      cfg,
	}
	h.state.Store(int32(domain.ConnRunning))
	return h
}

// State returns the connection state.
func (h *Handler) State() domain.ConnState {
	return domain.ConnState(h.state.Load())
}

// Frames returns the number of frames written so far.
// Only meaningful after Run has returned.
func (h *Handler) Frames() int {
	return h.frames
}

// Run sends one frame immediately and then one per interval until a write
// fails or ctx is cancelled. The connection is closed before Run returns.
// The returned error is the write failure that ended the loop, or nil when
// the loop was stopped by ctx.
func (h *Handler) Run(ctx context.Context) error {
	h.logger.Info("client connected", ports.String("remote", h.remote))
	h.observer.OnConnectionOpened(h.remote)

	// Unblocks a pending Write on shutdown.
	stop := context.AfterFunc(ctx, func() { _ = h.conn.Close() })

	cause := h.loop(ctx)

	stop()
	if err := h.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		h.logger.Debug("close connection", ports.String("remote", h.remote), ports.Err(err))
	}
	h.state.Store(int32(domain.ConnClosed))

	if cause != nil {
		h.logger.Warn("connection closed",
			ports.String("remote", h.remote),
			ports.Int("frames", h.frames),
			ports.Err(cause),
		)
	} else {
		h.logger.Info("connection closed on shutdown",
			ports.String("remote", h.remote),
			ports.Int("frames", h.frames),
		)
	}
	h.observer.OnConnectionClosed(h.remote, h.frames, cause)

	return cause
}

func (h *Handler) loop(ctx context.Context) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("handler panic: %v", p)
		}
	}()

	for {
		if ctx.Err() != nil {
			return nil
		}

		if err := h.send(); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		t := time.NewTimer(h.cfg.interval())
		select {
		case <-ctx.Done():
			t.Stop()
			return nil
		case <-t.C:
		}
	}
}

// send generates, encodes and writes a single frame.
func (h *Handler) send() error {
	r := h.source.Next()
	f := wire.Encode(r)

	h.logger.Debug("reading",
		ports.String("remote", h.remote),
		ports.Float64("speed", r.Speed),
		ports.Float64("yaw_rate", r.YawRate),
	)
	if h.cfg.LogFrames {
		h.logger.Debug("frame",
			ports.String("remote", h.remote),
			ports.Uint32("length", f.Length()),
			ports.Hex("payload", f.Payload),
		)
	}

	if h.cfg.WriteTimeout > 0 {
		if err := h.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout)); err != nil {
			return fmt.Errorf("set write deadline: %w", err)
		}
	}

	start := time.Now()
	n, err := wire.WriteFrame(h.conn, f)
	if err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	h.frames++
	h.observer.OnFrameSent(h.remote, n, time.Since(start))
	return nil
}
