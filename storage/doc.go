// Package storage provides the persistence backends behind the credential
// store and the PKCE flow state.
//
// # Design
//
// A [Store] is a flat string key/value namespace supporting only whole-value
// save and delete. Partial mutation is deliberately impossible: the
// credential and flow state are always replaced or cleared as a unit, which
// eliminates torn-write hazards under concurrent use.
//
// Three backends are provided: [Memory] for tests and ephemeral sessions,
// [File] as the durable system of record across process restarts, and
// [Redis] for deployments that already run the goAuth server's Redis.
//
// # What this package must NOT do
//
//   - Inspect or decode stored values. Token semantics live in the root
//     package and claims/.
//   - Expose iteration. Callers address fixed, well-known keys only.
package storage
