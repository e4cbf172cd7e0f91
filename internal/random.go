package internal

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
)

const (
	codeVerifierRawSize = 32
	stateNonceRawSize   = 16
)

// NewCodeVerifier returns a fresh PKCE code verifier: 32 random bytes in
// unpadded base64url, which yields the 43-character minimum RFC 7636 allows.
func NewCodeVerifier() (string, error) {
	var raw [codeVerifierRawSize]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw[:]), nil
}

// NewStateNonce returns a random state value binding an authorization
// redirect to the session that initiated it.
func NewStateNonce() (string, error) {
	var raw [stateNonceRawSize]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw[:]), nil
}

// ChallengeS256 derives the S256 code challenge for a verifier:
// base64url(SHA-256(verifier)), unpadded.
func ChallengeS256(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
