package goAuthClient

import (
	"errors"
	"net/http"
	"net/http/cookiejar"
	"strings"

	"github.com/MrEthical07/goAuthClient/claims"
	"github.com/MrEthical07/goAuthClient/storage"
)

// Builder assembles an [Engine]. Obtain one through [New], apply the With*
// setters, and call [Builder.Build] exactly once.
type Builder struct {
	config Config

	httpClient      *http.Client
	credentialStore storage.Store
	sessionStore    storage.Store
	auditSink       AuditSink
	onUnauthorized  func()

	built bool
}

// New creates a Builder with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the entire configuration tree.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithBaseURL sets the server base URL, keeping the default endpoint paths.
func (b *Builder) WithBaseURL(baseURL string) *Builder {
	b.config.Endpoints.BaseURL = baseURL
	return b
}

// WithHTTPClient injects the transport. When omitted, Build creates a
// client with a cookie jar and the configured timeout; cookies are required
// for session correlation, so an injected client should carry a jar too.
func (b *Builder) WithHTTPClient(client *http.Client) *Builder {
	b.httpClient = client
	return b
}

// WithCredentialStorage sets the persistent backend for the token pair.
// Defaults to an in-memory store, which does not survive a restart.
func (b *Builder) WithCredentialStorage(store storage.Store) *Builder {
	b.credentialStore = store
	return b
}

// WithSessionStorage sets the session-scoped backend used for pending PKCE
// state. Defaults to an in-memory store.
func (b *Builder) WithSessionStorage(store storage.Store) *Builder {
	b.sessionStore = store
	return b
}

// WithAuditSink sets the audit event destination.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles the in-process metrics system.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles dispatcher latency histograms.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// WithUnauthorizedHandler registers the side effect for a 401 that
// survives the refresh-and-retry, typically a redirect to the login view.
// Only invoked under [UnauthorizedCallback].
func (b *Builder) WithUnauthorizedHandler(fn func()) *Builder {
	b.onUnauthorized = fn
	return b
}

// Build validates the configuration and constructs the engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	decoder, err := claims.NewDecoder(claims.Config{
		SigningMethod: cfg.Claims.SigningMethod,
		VerifyKey:     cfg.Claims.VerifyKey,
	})
	if err != nil {
		return nil, err
	}

	credentialStore := b.credentialStore
	if credentialStore == nil {
		credentialStore = storage.NewMemory()
	}
	sessionStore := b.sessionStore
	if sessionStore == nil {
		sessionStore = storage.NewMemory()
	}

	credentials, err := NewCredentialStore(credentialStore, decoder, cfg.Credentials)
	if err != nil {
		return nil, err
	}

	client := b.httpClient
	if client == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		client = &http.Client{
			Jar:     jar,
			Timeout: cfg.Dispatch.Timeout,
		}
	}

	metrics := NewMetrics(cfg.Metrics)
	bootstrapURL := strings.TrimRight(cfg.Endpoints.BaseURL, "/") + cfg.Endpoints.CSRFBootstrap

	engine := &Engine{
		config:       cfg,
		httpClient:   client,
		credentials:  credentials,
		csrf:         newCSRFManager(client, bootstrapURL, cfg.CSRF, metrics),
		sessionStore: sessionStore,
		audit:        newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics:      metrics,
	}
	engine.onUnauthorized = b.onUnauthorized

	b.built = true
	return engine, nil
}
