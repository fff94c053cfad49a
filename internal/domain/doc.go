// Package domain contains the core domain entities and value objects for carcast.
//
// This package represents the innermost layer of the application. It has
// no dependencies on infrastructure concerns (sockets, logging, metrics) and
// contains only value types, their invariants and the sentinel errors.
//
// # Entities
//
//   - [Reading]: One synthetic vehicle sample (speed, yaw rate)
//   - [Frame]: One length-prefixed, word-padded unit placed on the wire
//   - [ConnState]: The state of a single client connection
//
// # Design Principles
//
// Domain entities are:
//   - Immutable after construction (where practical)
//   - Free of infrastructure dependencies
//   - Testable without mocks or network access
package domain
