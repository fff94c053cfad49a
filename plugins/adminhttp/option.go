package adminhttp

import "github.com/bft-labs/carcast/pkg/carcast"

// WithAdminHTTP returns a carcast Option that serves the admin endpoints
// on cfg.Addr.
//
// Usage:
//
//	srv, err := carcast.New(cfg,
//	    adminhttp.WithAdminHTTP(adminhttp.Config{Addr: "127.0.0.1:9100"}),
//	)
func WithAdminHTTP(cfg Config) carcast.Option {
	return carcast.WithPlugin(New(cfg))
}
