package goAuthClient

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/MrEthical07/goAuthClient/claims"
)

// Config is the full engine configuration tree. Obtain a baseline from the
// builder defaults and override what the deployment needs; [Builder.Build]
// validates the result.
type Config struct {
	Endpoints   EndpointConfig
	Credentials CredentialConfig
	CSRF        CSRFConfig
	Dispatch    DispatchConfig
	OAuth       OAuthConfig
	Claims      ClaimsConfig
	Audit       AuditConfig
	Metrics     MetricsConfig
}

/*
====================================
ENDPOINT CONFIG
====================================
*/

// EndpointConfig names the server routes the engine talks to. Paths are
// resolved against BaseURL. Login, Register, and Refresh are bootstrap
// endpoints: they are exempt from CSRF protection because no session-bound
// synchronizer token can exist before them.
type EndpointConfig struct {
	BaseURL       string
	Login         string
	Register      string
	Refresh       string
	Logout        string
	Profile       string
	AdminProfile  string
	OrgSelect     string
	CSRFBootstrap string
}

/*
====================================
CREDENTIAL CONFIG
====================================
*/

// CredentialConfig configures token persistence and expiry policy.
type CredentialConfig struct {
	// StorageKey is the fixed key the token pair lives under.
	StorageKey string
	// ExpirySkew is subtracted from the decoded exp: a token within this
	// margin of expiry is already treated as expired, absorbing clock
	// drift and request transit time.
	ExpirySkew time.Duration
}

/*
====================================
CSRF CONFIG
====================================
*/

// CSRFConfig configures synchronizer-token acquisition.
type CSRFConfig struct {
	// HeaderName carries the token in both directions.
	HeaderName string
	// MaxAttempts bounds bootstrap GETs per acquisition.
	MaxAttempts int
	// BackoffStep is the linear backoff unit between attempts: the n-th
	// failed attempt waits n*BackoffStep.
	BackoffStep time.Duration
}

/*
====================================
DISPATCH CONFIG
====================================
*/

// DispatchConfig configures the authenticated request dispatcher.
type DispatchConfig struct {
	// Timeout applies to the engine-owned HTTP client. Ignored when a
	// client is injected through [Builder.WithHTTPClient].
	Timeout time.Duration
	// UserAgent is sent on every request when non-empty.
	UserAgent string
	// OnUnauthorized selects the side effect for a 401 that survives the
	// single refresh-and-retry.
	OnUnauthorized UnauthorizedPolicy
}

/*
====================================
OAUTH CONFIG
====================================
*/

// OAuthConfig configures the Authorization-Code-with-PKCE flow. ClientSecret
// stays empty for public clients; PKCE is what removes the need for one.
type OAuthConfig struct {
	AuthorizeURL string
	TokenURL     string
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string
	// StateKey is the session-scoped storage key for the pending
	// {verifier, state} pair. Cleared after a single use.
	StateKey string
}

func (c *OAuthConfig) validate() error {
	if c.ClientID == "" {
		return errors.New("oauth: client id required")
	}
	if c.RedirectURI == "" {
		return errors.New("oauth: redirect uri required")
	}
	for name, raw := range map[string]string{
		"authorize url": c.AuthorizeURL,
		"token url":     c.TokenURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("oauth: invalid %s %q", name, raw)
		}
	}
	return nil
}

/*
====================================
CLAIMS CONFIG
====================================
*/

// ClaimsConfig configures access-token decoding. The zero value decodes
// without signature verification, which is the normal posture for a public
// client.
type ClaimsConfig struct {
	SigningMethod claims.SigningMethod
	VerifyKey     []byte
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig controls the buffered audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process metrics system.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the baseline configuration tree. It is not valid
// on its own: BaseURL must be set before [Builder.Build] accepts it.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Endpoints: EndpointConfig{
			Login:         "/auth/login",
			Register:      "/auth/register",
			Refresh:       "/auth/refresh",
			Logout:        "/auth/logout",
			Profile:       "/users/me",
			AdminProfile:  "/admin/profile",
			OrgSelect:     "/auth/organization",
			CSRFBootstrap: "/auth/csrf",
		},
		Credentials: CredentialConfig{
			StorageKey: "goauthclient:tokens",
			ExpirySkew: 0,
		},
		CSRF: CSRFConfig{
			HeaderName:  "X-CSRF-Token",
			MaxAttempts: 3,
			BackoffStep: 100 * time.Millisecond,
		},
		Dispatch: DispatchConfig{
			Timeout:        30 * time.Second,
			OnUnauthorized: UnauthorizedCallback,
		},
		OAuth: OAuthConfig{
			StateKey: "goauthclient:pkce",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	if cfg.Claims.VerifyKey != nil {
		out.Claims.VerifyKey = append([]byte(nil), cfg.Claims.VerifyKey...)
	}
	if cfg.OAuth.Scopes != nil {
		out.OAuth.Scopes = append([]string(nil), cfg.OAuth.Scopes...)
	}
	return out
}

// Validate checks the configuration tree for contradictions. The OAuth
// section is validated lazily by [Engine.NewFlow], since many deployments
// never run the delegated flow.
func (c *Config) Validate() error {
	base, err := url.Parse(c.Endpoints.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return fmt.Errorf("invalid base URL %q", c.Endpoints.BaseURL)
	}

	for name, path := range map[string]string{
		"login":          c.Endpoints.Login,
		"register":       c.Endpoints.Register,
		"refresh":        c.Endpoints.Refresh,
		"logout":         c.Endpoints.Logout,
		"profile":        c.Endpoints.Profile,
		"admin profile":  c.Endpoints.AdminProfile,
		"org select":     c.Endpoints.OrgSelect,
		"csrf bootstrap": c.Endpoints.CSRFBootstrap,
	} {
		if !strings.HasPrefix(path, "/") {
			return fmt.Errorf("%s endpoint must be an absolute path, got %q", name, path)
		}
	}

	if c.Credentials.StorageKey == "" {
		return errors.New("credential storage key required")
	}
	if c.Credentials.ExpirySkew < 0 || c.Credentials.ExpirySkew > time.Hour {
		return errors.New("invalid expiry skew")
	}

	if c.CSRF.HeaderName == "" {
		return errors.New("csrf header name required")
	}
	if c.CSRF.MaxAttempts < 1 || c.CSRF.MaxAttempts > 10 {
		return errors.New("csrf max attempts must be in [1,10]")
	}
	if c.CSRF.BackoffStep <= 0 || c.CSRF.BackoffStep > 5*time.Second {
		return errors.New("invalid csrf backoff step")
	}

	if c.Dispatch.Timeout <= 0 {
		return errors.New("dispatch timeout must be positive")
	}
	switch c.Dispatch.OnUnauthorized {
	case UnauthorizedCallback, UnauthorizedNoop:
	default:
		return errors.New("invalid unauthorized policy")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("audit buffer size must be positive")
	}

	return nil
}
