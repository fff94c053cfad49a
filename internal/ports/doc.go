// Package ports defines the interfaces (ports) that connect the application
// layer to infrastructure adapters.
//
// Ports are the boundaries between the application core and the outside
// world. They define what the application needs from external systems
// without specifying how those needs are fulfilled.
//
// # Port Interfaces
//
//   - [Logger]: Structured logging abstraction
//   - [ReadingSource]: Supplies readings to connection handlers
//   - [ConnObserver]: Receives per-connection and accept-loop events
//
// # Usage
//
// The application layer (internal/app) depends only on these interfaces.
// Infrastructure adapters (internal/adapters) implement them with concrete
// implementations (zerolog, Prometheus, etc.).
package ports
