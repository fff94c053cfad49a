package configwatcher

import "github.com/bft-labs/carcast/pkg/carcast"

// WithConfigWatcher returns a carcast Option that enables config file watching.
// When enabled, the plugin reloads send_interval from the TOML file at
// cfg.Path whenever it is written.
//
// Usage:
//
//	srv, err := carcast.New(cfg,
//	    configwatcher.WithConfigWatcher(configwatcher.Config{
//	        Path:          "/etc/carcast/config.toml",
//	        DebounceDelay: 100 * time.Millisecond,
//	    }),
//	)
func WithConfigWatcher(cfg Config) carcast.Option {
	return carcast.WithPlugin(New(cfg))
}
