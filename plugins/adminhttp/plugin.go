// Package adminhttp exposes health, status and Prometheus metrics of a
// running carcast server over HTTP.
//
// Routes:
//
//	GET /healthz  200 while the server is running, 503 otherwise
//	GET /status   JSON snapshot of the server
//	GET /metrics  Prometheus exposition format
package adminhttp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bft-labs/carcast/pkg/carcast"
	"github.com/bft-labs/carcast/pkg/log"
)

// Config holds configuration options for the admin HTTP plugin.
type Config struct {
	// Addr is the listen address, e.g. "127.0.0.1:9100".
	Addr string

	// ShutdownTimeout bounds the graceful HTTP shutdown.
	// Default: 5 seconds
	ShutdownTimeout time.Duration
}

// Status is the JSON body served on /status.
type Status struct {
	State             string `json:"state"`
	Addr              string `json:"addr"`
	ActiveConnections int    `json:"active_connections"`
	SendInterval      string `json:"send_interval"`
}

// Plugin serves the admin endpoints.
type Plugin struct {
	cfg Config

	mu     sync.Mutex
	logger carcast.Logger
	ln     net.Listener
	srv    *http.Server
	done   chan struct{}
}

// New creates a new admin HTTP plugin with the given configuration.
func New(cfg Config) *Plugin {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 5 * time.Second
	}
	return &Plugin{cfg: cfg}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "adminhttp"
}

// Initialize binds the admin address and starts serving.
// A bind failure aborts the server start.
func (p *Plugin) Initialize(ctx context.Context, cfg carcast.PluginConfig) error {
	p.logger = cfg.Logger
	if p.logger == nil {
		p.logger = log.NewNoopLogger()
	}

	ln, err := net.Listen("tcp", p.cfg.Addr)
	if err != nil {
		return fmt.Errorf("admin listen %s: %w", p.cfg.Addr, err)
	}

	srv := &http.Server{
		Handler:           NewRouter(cfg),
		ReadHeaderTimeout: 5 * time.Second,
	}

	p.mu.Lock()
	p.ln = ln
	p.srv = srv
	p.done = make(chan struct{})
	p.mu.Unlock()

	p.logger.Info("admin endpoint listening", log.String("addr", ln.Addr().String()))

	go func() {
		defer close(p.done)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			p.logger.Error("admin endpoint stopped", log.Err(err))
		}
	}()

	return nil
}

// Shutdown stops the HTTP server gracefully.
func (p *Plugin) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	srv, done := p.srv, p.done
	p.mu.Unlock()
	if srv == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.ShutdownTimeout)
	defer cancel()

	err := srv.Shutdown(ctx)
	<-done
	return err
}

// Addr returns the bound admin address, or "" before Initialize.
func (p *Plugin) Addr() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ln == nil {
		return ""
	}
	return p.ln.Addr().String()
}

// NewRouter builds the admin routes over the server accessors in cfg.
func NewRouter(cfg carcast.PluginConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if cfg.Status() != carcast.StateRunning {
			http.Error(w, cfg.Status().String(), http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok\n"))
	})

	r.Get("/status", func(w http.ResponseWriter, _ *http.Request) {
		st := Status{
			State:             cfg.Status().String(),
			Addr:              cfg.Addr,
			ActiveConnections: cfg.ActiveConnections(),
			SendInterval:      cfg.SendInterval().String(),
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(st)
	})

	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	return r
}
