// Package audit defines the audit event model and the built-in sinks used
// by the goAuthClient engine.
//
// # Architecture boundaries
//
// This package owns the Event shape and Sink delivery primitives. Event
// emission policy (which operations emit what) lives in the root package's
// dispatcher.
//
// # What this package must NOT do
//
//   - Import goAuthClient or any sibling package.
//   - Block the emitting goroutine beyond the sink's own semantics.
package audit
