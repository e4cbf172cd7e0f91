package goAuthClient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestLoginStoresScopedPairAndPrincipal(t *testing.T) {
	access := accessToken(t, time.Hour)

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil ||
			body["email"] != "alice@example.com" || body["password"] != "pw" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": map[string]any{
				"user":          map[string]string{"id": "u1", "email": "alice@example.com"},
				"access_token":  access,
				"refresh_token": "refresh-1",
			},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	engine := newTestEngine(t, srv.URL)

	result, err := engine.Login(context.Background(), "alice@example.com", "pw")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if !result.Success || result.NeedsOrgSelection {
		t.Fatalf("expected single-phase login, got %+v", result)
	}

	pair, ok, err := engine.Credentials().Get(context.Background())
	if err != nil || !ok {
		t.Fatalf("expected stored pair, ok=%v err=%v", ok, err)
	}
	if pair.AccessToken != access {
		t.Fatal("stored access token does not match the issued one")
	}

	p, ok := engine.Principal()
	if !ok {
		t.Fatal("expected a principal after login")
	}
	if p.User.ID != "u1" || p.Source != PrincipalFromServer {
		t.Fatalf("unexpected principal %+v", p)
	}
	if p.Organization == nil || p.Organization.ID != "org-1" {
		t.Fatalf("expected organization scope from claims, got %+v", p.Organization)
	}
}

func TestLoginDefersWhenNoTokenIssued(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": map[string]any{
				"user": map[string]string{"id": "u1", "email": "alice@example.com"},
				"organizations": []map[string]string{
					{"id": "org-1", "name": "First"},
					{"id": "org-2", "name": "Second"},
				},
			},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	engine := newTestEngine(t, srv.URL, func(b *Builder) {
		b.WithMetricsEnabled(true)
	})

	result, err := engine.Login(context.Background(), "alice@example.com", "pw")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if !result.NeedsOrgSelection {
		t.Fatal("expected NeedsOrgSelection for a multi-organization account")
	}
	if len(result.Organizations) != 2 {
		t.Fatalf("expected 2 organizations, got %d", len(result.Organizations))
	}

	// Identity is proven, but no working token may exist yet.
	if _, ok, _ := engine.Credentials().Get(context.Background()); ok {
		t.Fatal("phase-one login must not store credentials")
	}
	if engine.metrics.Value(MetricLoginDeferred) != 1 {
		t.Fatal("expected deferred login metric")
	}
}

func TestSelectOrganizationCompletesLogin(t *testing.T) {
	scoped := scopedToken(t, "org-2", time.Hour)

	mux := http.NewServeMux()
	serveCSRF(mux)
	mux.HandleFunc("/auth/organization", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-CSRF-Token") != testCSRFToken {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body["organization_id"] != "org-2" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": map[string]any{
				"user":          map[string]string{"id": "u1", "email": "alice@example.com"},
				"access_token":  scoped,
				"refresh_token": "refresh-scoped",
			},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	engine := newTestEngine(t, srv.URL)

	if err := engine.SelectOrganization(context.Background(), "org-2"); err != nil {
		t.Fatalf("organization selection failed: %v", err)
	}

	pair, ok, err := engine.Credentials().Get(context.Background())
	if err != nil || !ok {
		t.Fatalf("expected scoped pair, ok=%v err=%v", ok, err)
	}
	if pair.AccessToken != scoped || pair.RefreshToken != "refresh-scoped" {
		t.Fatal("stored pair does not match the scoped issue")
	}

	p, ok := engine.Principal()
	if !ok || p.Organization == nil || p.Organization.ID != "org-2" {
		t.Fatalf("expected principal scoped to org-2, got %+v", p)
	}
}

func TestSelectOrganizationRequiresID(t *testing.T) {
	srv := httptest.NewServer(http.NewServeMux())
	defer srv.Close()

	engine := newTestEngine(t, srv.URL)
	if err := engine.SelectOrganization(context.Background(), ""); err != ErrOrganizationRequired {
		t.Fatalf("expected ErrOrganizationRequired, got %v", err)
	}
}

func TestLoginFailureCarriesServerMessage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"error":   "invalid credentials",
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	engine := newTestEngine(t, srv.URL)

	result, err := engine.Login(context.Background(), "alice@example.com", "wrong")
	if !errors.Is(err, ErrLoginFailed) {
		t.Fatalf("expected ErrLoginFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "invalid credentials") {
		t.Fatalf("expected server message in error, got %q", err.Error())
	}
	if result.Success {
		t.Fatal("failed login must not report success")
	}
	if _, ok, _ := engine.Credentials().Get(context.Background()); ok {
		t.Fatal("failed login must not store credentials")
	}
}

func TestLoginRejection401DoesNotRedirect(t *testing.T) {
	var callbacks atomic.Int64

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"error":   "invalid credentials",
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	engine := newTestEngine(t, srv.URL, func(b *Builder) {
		b.WithUnauthorizedHandler(func() { callbacks.Add(1) })
	})

	if _, err := engine.Login(context.Background(), "alice@example.com", "wrong"); !errors.Is(err, ErrLoginFailed) {
		t.Fatalf("expected ErrLoginFailed, got %v", err)
	}
	if callbacks.Load() != 0 {
		t.Fatalf("rejected login must not trigger the redirect callback, got %d", callbacks.Load())
	}
}

func TestRegisterAutoLogin(t *testing.T) {
	access := accessToken(t, time.Hour)

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/register", func(w http.ResponseWriter, r *http.Request) {
		var reg RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&reg); err != nil || reg.Email == "" || reg.Password == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": map[string]any{
				"user":          map[string]string{"id": "u9", "email": reg.Email},
				"access_token":  access,
				"refresh_token": "refresh-1",
			},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	engine := newTestEngine(t, srv.URL)

	result, err := engine.Register(context.Background(), RegisterRequest{
		Email:    "bob@example.com",
		Password: "pw",
		Name:     "Bob",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if !result.Success || result.NeedsOrgSelection {
		t.Fatalf("expected auto-login registration, got %+v", result)
	}
	if _, ok, _ := engine.Credentials().Get(context.Background()); !ok {
		t.Fatal("expected stored credentials after auto-login")
	}
}
