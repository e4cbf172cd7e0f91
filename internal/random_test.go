package internal

import (
	"crypto/sha256"
	"encoding/base64"
	"testing"
)

func TestCodeVerifierShape(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 64; i++ {
		v, err := NewCodeVerifier()
		if err != nil {
			t.Fatalf("NewCodeVerifier: %v", err)
		}
		if len(v) != 43 {
			t.Fatalf("verifier length = %d, want 43", len(v))
		}
		if _, err := base64.RawURLEncoding.DecodeString(v); err != nil {
			t.Fatalf("verifier not base64url: %v", err)
		}
		if seen[v] {
			t.Fatal("duplicate verifier")
		}
		seen[v] = true
	}
}

func TestChallengeRoundTrip(t *testing.T) {
	for i := 0; i < 64; i++ {
		v, err := NewCodeVerifier()
		if err != nil {
			t.Fatalf("NewCodeVerifier: %v", err)
		}
		sum := sha256.Sum256([]byte(v))
		want := base64.RawURLEncoding.EncodeToString(sum[:])
		if got := ChallengeS256(v); got != want {
			t.Fatalf("ChallengeS256 = %q, want %q", got, want)
		}
	}
}

func TestChallengeKnownVector(t *testing.T) {
	// RFC 7636 appendix B.
	const verifier = "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	const challenge = "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM"
	if got := ChallengeS256(verifier); got != challenge {
		t.Fatalf("ChallengeS256 = %q, want %q", got, challenge)
	}
}
