package carcast

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Plugin extends a Server with optional functionality.
// Plugins are initialized in registration order when the server starts and
// shut down in reverse order when it stops.
type Plugin interface {
	// Name returns a short identifier used in logs.
	Name() string

	// Initialize is called once the listener is bound. ctx is cancelled on Stop.
	Initialize(ctx context.Context, cfg PluginConfig) error

	// Shutdown releases plugin resources.
	Shutdown(ctx context.Context) error
}

// PluginConfig gives plugins access to the running server.
type PluginConfig struct {
	Logger Logger

	// Addr is the bound listen address.
	Addr string

	// Gatherer exposes the server's metrics registry.
	Gatherer prometheus.Gatherer

	Status            func() State
	ActiveConnections func() int
	SendInterval      func() time.Duration
	SetSendInterval   func(time.Duration) error
}

// BasePlugin implements Plugin with no-op methods.
type BasePlugin struct{}

func (BasePlugin) Name() string                                   { return "base" }
func (BasePlugin) Initialize(context.Context, PluginConfig) error { return nil }
func (BasePlugin) Shutdown(context.Context) error                 { return nil }
