// Package internal holds unexported helpers shared by the goAuthClient root
// package: PKCE parameter generation and challenge derivation.
package internal
