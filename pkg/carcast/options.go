package carcast

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bft-labs/carcast/internal/ports"
	"github.com/bft-labs/carcast/pkg/generator"
	"github.com/bft-labs/carcast/pkg/log"
)

// Logger is the interface for structured logging.
type Logger = log.Logger

// LogField represents a structured log field.
type LogField = log.Field

// Option configures optional behavior of a Server.
type Option func(*options)

// options holds the optional configuration for a Server instance.
type options struct {
	logger       ports.Logger
	source       generator.Source
	eventHandler EventHandler
	plugins      []Plugin
	registry     *prometheus.Registry
}

// defaultOptions returns options with sensible defaults.
func defaultOptions(cfg Config) options {
	return options{
		logger: log.NewNoopLogger(),
		source: generator.NewRandom(cfg.Seed),
	}
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithSource replaces the random reading source. The source is shared by all
// connections and must be safe for concurrent use.
func WithSource(source generator.Source) Option {
	return func(o *options) {
		o.source = source
	}
}

// WithEventHandler sets a handler for server events.
// If not provided, no events are emitted.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// WithPlugin registers a plugin to be initialized when the server starts.
func WithPlugin(plugin Plugin) Option {
	return func(o *options) {
		o.plugins = append(o.plugins, plugin)
	}
}

// WithMetricsRegistry registers the server metrics with reg instead of a
// private registry. The registry is also handed to plugins as their Gatherer.
func WithMetricsRegistry(reg *prometheus.Registry) Option {
	return func(o *options) {
		o.registry = reg
	}
}
