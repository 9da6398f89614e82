// Package audit implements async event dispatching for security-relevant operations.
//
// # Components
//
//   - [Sink]: interface for event consumers (channel, JSON writer, file, slog, no-op).
//   - [Dispatcher]: buffered single-worker relay; Emit waits for room unless DropIfFull is set.
//   - [Event]: structured audit record with timestamp, kind, user, session reference, IP.
//
// # Architecture boundaries
//
// This package owns event buffering and sink delivery. It does NOT decide which events
// to emit; that responsibility belongs to the Engine.
//
// # What this package must NOT do
//
//   - Filter or suppress events based on business logic.
//   - Import credauth or any sibling internal package.
//   - Perform network I/O beyond what a caller-supplied Sink does.
package audit
