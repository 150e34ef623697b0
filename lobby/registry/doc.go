// Package registry provides the process-wide room table for the lobby
// server.
//
// The registry package implements:
//   - Thread-safe room storage and lookup by code
//   - Collision-resistant room code allocation
//   - Room lifecycle (create, delete, idle cleanup)
//
// The Registry is an explicit value constructed once at process start and
// injected into the layers that need room lookup; there is no hidden
// package-level singleton. The registry owns room lifetimes but never
// mutates a room's membership or history itself — all of that happens
// inside room operations.
//
// Usage:
//
//	reg := registry.New()
//
//	rm, err := reg.Create()
//	rm, err = reg.Get(code)
//	removed := reg.CleanupIdle(time.Hour)
package registry
