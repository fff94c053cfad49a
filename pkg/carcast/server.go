package carcast

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bft-labs/carcast/internal/adapters/metrics"
	"github.com/bft-labs/carcast/internal/app"
	"github.com/bft-labs/carcast/internal/domain"
	"github.com/bft-labs/carcast/internal/ports"
	"github.com/bft-labs/carcast/pkg/log"
	"github.com/bft-labs/carcast/pkg/wire"
)

// Server publishes telemetry frames to TCP clients.
// Use New() to create an instance, then Start() to begin accepting clients.
type Server struct {
	config    Config
	opts      options
	lifecycle *app.Lifecycle
	logger    ports.Logger
	observer  ports.ConnObserver
	registry  *prometheus.Registry
	interval  atomic.Int64

	mu       sync.RWMutex
	listener *app.Listener
}

// New creates a new Server with the given configuration.
// The instance is created in StateStopped; call Start() to bind and serve.
// Returns an error if configuration is invalid.
func New(cfg Config, opts ...Option) (*Server, error) {
	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := validateModuleVersions(); err != nil {
		return nil, err
	}

	o := defaultOptions(cfg)
	for _, opt := range opts {
		opt(&o)
	}

	registry := o.registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	emitter := &eventEmitterWrapper{handler: o.eventHandler}

	s := &Server{
		config:    cfg,
		opts:      o,
		lifecycle: app.NewLifecycle(o.logger, emitter),
		logger:    o.logger,
		observer:  ports.Observers{metrics.NewCollector(registry), emitter},
		registry:  registry,
	}
	s.interval.Store(int64(cfg.SendInterval))
	return s, nil
}

// Start binds the listen address and begins accepting clients in the background.
// A bind failure is returned immediately and leaves the server in StateCrashed.
// The provided context bounds the lifetime of the server: cancelling it stops
// the server as Stop would, ending in StateStopped.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	if err := s.lifecycle.Begin(cancel); err != nil {
		cancel()
		return err
	}

	ln, err := app.Listen(runCtx, s.config.Addr(), s.opts.source, s.logger, s.observer, app.HandlerConfig{
		Interval:     s.SendInterval,
		WriteTimeout: s.config.WriteTimeout,
		LogFrames:    s.config.LogFrames,
	})
	if err != nil {
		s.lifecycle.Fail("bind failed")
		return err
	}
	s.listener = ln

	pluginCfg := PluginConfig{
		Logger:            s.logger,
		Addr:              ln.Addr().String(),
		Gatherer:          s.registry,
		Status:            s.Status,
		ActiveConnections: s.ActiveConnections,
		SendInterval:      s.SendInterval,
		SetSendInterval:   s.SetSendInterval,
	}
	for i, p := range s.opts.plugins {
		if err := p.Initialize(runCtx, pluginCfg); err != nil {
			s.logger.Error("plugin initialization failed",
				log.String("plugin", p.Name()),
				log.Err(err))
			s.shutdownPlugins(s.opts.plugins[:i])
			_ = ln.Close()
			s.lifecycle.Fail("plugin init failed: " + p.Name())
			return fmt.Errorf("plugin %s: %w", p.Name(), err)
		}
		s.logger.Info("plugin initialized", log.String("plugin", p.Name()))
	}

	if err := s.lifecycle.Ready("listener bound"); err != nil {
		_ = ln.Close()
		return err
	}

	s.lifecycle.Go(func() {
		err := ln.Serve(runCtx)
		if err != nil {
			s.logger.Error("accept loop stopped", log.Err(err))
		}
		if s.lifecycle.AcceptLoopExited(err) {
			_ = s.teardown(ln, err)
		}
	})

	return nil
}

// Stop closes the listener and every client connection.
// Pending frames are not flushed. Waits up to app.ShutdownTimeout for the
// accept loop and the connection goroutines to exit.
// Returns nil on a clean stop, ErrShutdownTimeout otherwise.
func (s *Server) Stop() error {
	s.mu.Lock()
	if err := s.lifecycle.BeginStop("Stop() called"); err != nil {
		s.mu.Unlock()
		return err
	}
	ln := s.listener
	s.mu.Unlock()

	// The accept loop must be gone before waiting on handlers, so that no
	// handler starts after the wait begins.
	err := s.lifecycle.WaitWithTimeout(app.ShutdownTimeout)
	if err != nil {
		s.shutdownPlugins(s.opts.plugins)
		s.lifecycle.Finish(err)
		return err
	}
	return s.teardown(ln, nil)
}

// teardown runs once the server is Stopping and the accept loop has
// returned: it waits for the handlers, shuts plugins down and settles the
// final state. cause is the accept loop error, if any.
func (s *Server) teardown(ln *app.Listener, cause error) error {
	err := ln.Wait(app.ShutdownTimeout)
	s.shutdownPlugins(s.opts.plugins)

	if cause != nil {
		s.lifecycle.Finish(cause)
		return cause
	}
	s.lifecycle.Finish(err)
	return err
}

// shutdownPlugins shuts plugins down in reverse order.
func (s *Server) shutdownPlugins(plugins []Plugin) {
	ctx := context.Background()
	for i := len(plugins) - 1; i >= 0; i-- {
		p := plugins[i]
		if err := p.Shutdown(ctx); err != nil {
			s.logger.Error("plugin shutdown failed",
				log.String("plugin", p.Name()),
				log.Err(err))
		} else {
			s.logger.Info("plugin shutdown complete", log.String("plugin", p.Name()))
		}
	}
}

// Status returns the current lifecycle state.
// Safe to call concurrently from any goroutine.
func (s *Server) Status() State {
	return State(s.lifecycle.State())
}

// Addr returns the bound listen address, or "" before the first Start.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// ActiveConnections returns the number of clients currently being served.
func (s *Server) ActiveConnections() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return 0
	}
	return s.listener.Active()
}

// SendInterval returns the current pause between frames.
func (s *Server) SendInterval() time.Duration {
	return time.Duration(s.interval.Load())
}

// SetSendInterval changes the pause between frames. Running connections pick
// up the new value after their current pause.
func (s *Server) SetSendInterval(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("%w: send interval must be positive", domain.ErrInvalidConfig)
	}
	prev := time.Duration(s.interval.Swap(int64(d)))
	if prev != d {
		s.logger.Info("send interval changed",
			log.Duration("from", prev),
			log.Duration("to", d))
	}
	return nil
}

// Registry returns the Prometheus registry holding the server metrics.
func (s *Server) Registry() *prometheus.Registry {
	return s.registry
}

// validateModuleVersions checks that all module versions are compatible.
// Returns an error if any module version is below its minimum compatible version.
func validateModuleVersions() error {
	modules := map[string]struct {
		version    string
		minVersion string
	}{
		"wire": {wire.Version, wire.MinCompatibleVersion},
		"log":  {log.Version, log.MinCompatibleVersion},
	}

	for name, m := range modules {
		if !isVersionCompatible(m.version, m.minVersion) {
			return fmt.Errorf("module %s version %s is below minimum compatible version %s",
				name, m.version, m.minVersion)
		}
	}

	return nil
}

// isVersionCompatible checks if version >= minVersion using semantic versioning.
// Assumes versions are in format "major.minor.patch".
func isVersionCompatible(version, minVersion string) bool {
	var vMajor, vMinor, vPatch int
	var mMajor, mMinor, mPatch int

	_, _ = fmt.Sscanf(version, "%d.%d.%d", &vMajor, &vMinor, &vPatch)
	_, _ = fmt.Sscanf(minVersion, "%d.%d.%d", &mMajor, &mMinor, &mPatch)

	if vMajor != mMajor {
		return vMajor > mMajor
	}
	if vMinor != mMinor {
		return vMinor > mMinor
	}
	return vPatch >= mPatch
}
