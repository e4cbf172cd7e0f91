//go:build integration
// +build integration

package test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	goAuthClient "github.com/MrEthical07/goAuthClient"
	"github.com/MrEthical07/goAuthClient/claims"
)

const (
	integrationSigningKey = "integration-signing-key"
	integrationCSRFToken  = "csrf-integration-1"
	integrationPassword   = "s3cret"
)

// authServer is a fake backend implementing the full session surface the
// engine talks to: CSRF bootstrap, login, refresh with rotation, logout,
// profile, and one protected resource. It keeps exactly one live token
// pair, the way a session-bound backend would.
type authServer struct {
	t   *testing.T
	srv *httptest.Server

	mu      sync.Mutex
	access  string
	refresh string
	serial  int

	loginHits   int
	refreshHits int
	logoutHits  int
	profileHits int
	widgetHits  int
}

func newAuthServer(t *testing.T) *authServer {
	t.Helper()

	s := &authServer{t: t}
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/csrf", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("X-CSRF-Token", integrationCSRFToken)
	})
	mux.HandleFunc("/auth/login", s.handleLogin)
	mux.HandleFunc("/auth/refresh", s.handleRefresh)
	mux.HandleFunc("/auth/logout", s.handleLogout)
	mux.HandleFunc("/users/me", s.handleProfile)
	mux.HandleFunc("/api/widgets", s.handleWidgets)

	s.srv = httptest.NewServer(mux)
	t.Cleanup(s.srv.Close)
	return s
}

func (s *authServer) URL() string { return s.srv.URL }

// issuePair mints a fresh pair and makes it the only live one. Callers
// must hold s.mu.
func (s *authServer) issuePair() goAuthClient.TokenPair {
	s.serial++
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims.AccessClaims{
		Email:          "alice@example.com",
		Role:           "member",
		OrganizationID: "org-1",
		SessionID:      fmt.Sprintf("sess-%d", s.serial),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(integrationSigningKey))
	if err != nil {
		s.t.Fatalf("sign token: %v", err)
	}

	s.access = tok
	s.refresh = fmt.Sprintf("refresh-%d", s.serial)
	return goAuthClient.TokenPair{
		AccessToken:  s.access,
		RefreshToken: s.refresh,
		ExpiresIn:    3600,
		TokenType:    "Bearer",
	}
}

// revokeAccess invalidates the live access token server-side while the
// refresh token stays valid. The next bearer request gets a 401 and must
// recover through refresh.
func (s *authServer) revokeAccess() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = ""
}

func (s *authServer) authorized(r *http.Request) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.access != "" && r.Header.Get("Authorization") == "Bearer "+s.access
}

func (s *authServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.loginHits++
	s.mu.Unlock()

	var creds struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil || creds.Password != integrationPassword {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"success":false,"error":"invalid credentials"}`)
		return
	}

	s.mu.Lock()
	pair := s.issuePair()
	s.mu.Unlock()

	writeJSON(w, map[string]any{
		"success": true,
		"data": map[string]any{
			"user": map[string]any{
				"id":    "u1",
				"email": creds.Email,
				"role":  "member",
			},
			"access_token":  pair.AccessToken,
			"refresh_token": pair.RefreshToken,
			"expires_in":    pair.ExpiresIn,
			"token_type":    pair.TokenType,
		},
	})
}

func (s *authServer) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	s.mu.Lock()
	s.refreshHits++
	if req.RefreshToken == "" || req.RefreshToken != s.refresh {
		s.mu.Unlock()
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"success":false,"error":"refresh token revoked"}`)
		return
	}
	pair := s.issuePair()
	s.mu.Unlock()

	writeJSON(w, map[string]any{
		"success": true,
		"data": map[string]any{
			"access_token":  pair.AccessToken,
			"refresh_token": pair.RefreshToken,
		},
	})
}

func (s *authServer) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("X-CSRF-Token") != integrationCSRFToken {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	s.mu.Lock()
	s.logoutHits++
	s.access = ""
	s.refresh = ""
	s.mu.Unlock()

	writeJSON(w, map[string]any{"success": true})
}

func (s *authServer) handleProfile(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.profileHits++
	s.mu.Unlock()

	if !s.authorized(r) {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	writeJSON(w, map[string]any{
		"success": true,
		"data": map[string]any{
			"id":    "u1",
			"email": "alice@example.com",
			"role":  "member",
		},
	})
}

func (s *authServer) handleWidgets(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.widgetHits++
	s.mu.Unlock()

	if !s.authorized(r) {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	writeJSON(w, map[string]any{
		"success": true,
		"data":    []map[string]any{{"id": "w1", "name": "first widget"}},
	})
}

func (s *authServer) counters() (login, refresh, logout, profile, widgets int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loginHits, s.refreshHits, s.logoutHits, s.profileHits, s.widgetHits
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// newIntegrationEngine builds an engine against srv through the exported
// surface only, the way a consuming application would.
func newIntegrationEngine(t *testing.T, srv *authServer, mutate ...func(*goAuthClient.Builder)) *goAuthClient.Engine {
	t.Helper()

	b := goAuthClient.New().
		WithBaseURL(srv.URL()).
		WithMetricsEnabled(true)
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
