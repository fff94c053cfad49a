// Package carcast provides an embeddable vehicle telemetry publisher.
//
// A carcast server listens on a TCP address and streams synthetic vehicle
// readings (speed, yaw rate) to every connected client. Each connection gets
// its own goroutine and receives one frame immediately after connecting and
// one per send interval afterwards. See package wire for the frame format.
//
// # Basic Usage
//
//	cfg := carcast.DefaultConfig()
//	cfg.Port = 12345
//
//	srv, err := carcast.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := srv.Start(context.Background()); err != nil {
//	    log.Fatal(err) // bind failures surface here
//	}
//
//	// ... run until shutdown signal ...
//
//	if err := srv.Stop(); err != nil {
//	    log.Printf("shutdown error: %v", err)
//	}
//
// # Event Handling
//
// Implement [EventHandler] and pass it via [WithEventHandler] to observe state
// changes and client connections. Events are called synchronously from the
// accept loop and the connection goroutines; implementations should return
// quickly.
//
// # Dependency Injection
//
// For testing, inject a deterministic reading source and a logger:
//
//	srv, err := carcast.New(cfg,
//	    carcast.WithSource(generator.NewSequence(readings...)),
//	    carcast.WithLogger(customLogger),
//	)
//
// # Lifecycle States
//
// A Server can be in one of five states: [StateStopped], [StateStarting],
// [StateRunning], [StateStopping], or [StateCrashed]. Use [Server.Status] to
// query the current state.
//
// # Plugins
//
//	import "github.com/bft-labs/carcast/plugins/adminhttp"
//	import "github.com/bft-labs/carcast/plugins/configwatcher"
//
//	srv, err := carcast.New(cfg,
//	    adminhttp.WithAdminHTTP(adminhttp.Config{Addr: "localhost:9102"}),
//	    configwatcher.WithConfigWatcher(configwatcher.Config{Path: cfgPath}),
//	)
//
// # Version
//
// Current version: 1.0.0
package carcast
