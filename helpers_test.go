package goAuthClient

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/MrEthical07/goAuthClient/claims"
)

const (
	testCSRFToken  = "csrf-token-1"
	testSigningKey = "test-signing-key"
)

func signAccess(t *testing.T, c claims.AccessClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &c).SignedString([]byte(testSigningKey))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

func accessToken(t *testing.T, ttl time.Duration) string {
	t.Helper()
	return signAccess(t, claims.AccessClaims{
		Email:          "alice@example.com",
		Role:           "member",
		OrganizationID: "org-1",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	})
}

func scopedToken(t *testing.T, orgID string, ttl time.Duration) string {
	t.Helper()
	return signAccess(t, claims.AccessClaims{
		Email:          "alice@example.com",
		Role:           "member",
		OrganizationID: orgID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	})
}

func adminToken(t *testing.T, ttl time.Duration) string {
	t.Helper()
	return signAccess(t, claims.AccessClaims{
		Email:      "root@example.com",
		Role:       "admin",
		SuperAdmin: true,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u0",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	})
}

// serveCSRF registers the bootstrap endpoint on mux with the default paths.
func serveCSRF(mux *http.ServeMux) {
	mux.HandleFunc("/auth/csrf", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("X-CSRF-Token", testCSRFToken)
		w.WriteHeader(http.StatusOK)
	})
}

func newTestEngine(t *testing.T, baseURL string, mutate ...func(*Builder)) *Engine {
	t.Helper()

	b := New().WithBaseURL(baseURL)
	for _, fn := range mutate {
		fn(b)
	}
	engine, err := b.Build()
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

func seedCredentials(t *testing.T, e *Engine, access string) {
	t.Helper()
	if err := e.Credentials().Set(context.Background(), TokenPair{
		AccessToken:  access,
		RefreshToken: "refresh-1",
	}); err != nil {
		t.Fatalf("seed credentials: %v", err)
	}
}
