// Package goAuthClient is the client-side counterpart to a goAuth-style
// authorization server. It owns the bearer credential lifecycle (persisted
// token pair, silent refresh), CSRF synchronizer tokens for mutating calls,
// an authenticated request dispatcher with a strict one-retry-on-401 policy,
// and an OAuth2 Authorization-Code-with-PKCE flow for delegated
// authorization against the same server.
//
// The package is designed for concurrent callers: Engine methods are safe to
// use from multiple goroutines after initialization through [Builder.Build].
// Overlapping requests that each observe a 401 share a single in-flight
// token refresh; the first caller performs the network refresh and the rest
// wait for its result.
//
// # Architecture boundaries
//
// goAuthClient is the public surface. It exposes [Engine], [Builder],
// [Config], [Flow], and value types (TokenPair, Principal, LoginResult,
// APIResponse). Claim decoding lives in claims/, persistence backends in
// storage/, and audit/metric plumbing under internal/ and metrics/export/.
//
// # What this package must NOT do
//
//   - Interpret response bodies on behalf of the caller beyond envelope
//     normalization. Status codes and domain errors belong to the caller.
//   - Retry any request more than once. A second consecutive 401 is
//     returned verbatim.
//   - Send a bearer token it knows to be expired, or an unprotected
//     mutating request when no CSRF token could be obtained.
//
// # Credential contract
//
// The access token is never used past its decoded expiry. Expiry is
// re-checked immediately before header construction on every dispatch,
// including the post-refresh retry, so a token cannot expire unnoticed
// between check and use.
package goAuthClient
