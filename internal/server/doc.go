// Package server implements the core HTTP and WebSocket server functionality for Roomcast.
//
// The implementation is organized into specialized files for configuration,
// session management, routing, and HTTP handlers to keep the codebase
// maintainable and testable as the project grows. Room fan-out itself lives
// in the relay package; this package owns everything socket-facing.
package server
