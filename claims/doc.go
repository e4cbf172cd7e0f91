// Package claims decodes goAuth access tokens on the client side.
//
// # Design
//
// The server owns token signatures; a client normally only needs the claim
// payload (subject, role, organization scope, expiry) to decide whether a
// token is usable. [Decoder.Decode] therefore parses without signature
// verification by default. When a verification key is configured the
// signature is checked as well, but claim validation (expiry, audience) is
// always left to the caller: the credential store must be able to decode an
// expired token in order to report it as expired.
//
// # Architecture boundaries
//
// This package owns token parsing only. Persistence lives in storage/,
// expiry policy in the root package's CredentialStore.
//
// # What this package must NOT do
//
//   - Perform I/O or network calls.
//   - Cache decoded claims. Callers re-decode on demand so claims always
//     reflect the live token.
package claims
