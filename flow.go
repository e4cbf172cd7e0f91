package goAuthClient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/MrEthical07/goAuthClient/internal"
	"github.com/MrEthical07/goAuthClient/storage"
)

// FlowState is the position of a [Flow] in its state machine.
type FlowState uint8

const (
	// FlowIdle means no authorization attempt is in progress.
	FlowIdle FlowState = iota
	// FlowAwaitingRedirect means PKCE parameters are persisted and the
	// user agent has been handed the authorization URL.
	FlowAwaitingRedirect
	// FlowAwaitingCodeExchange means a matching callback arrived and the
	// code is being exchanged.
	FlowAwaitingCodeExchange
	// FlowAuthenticated means the exchanged token pair is in the
	// credential store.
	FlowAuthenticated
	// FlowFailed is terminal for the attempt; a new Begin starts over.
	FlowFailed
)

func (s FlowState) String() string {
	switch s {
	case FlowIdle:
		return "idle"
	case FlowAwaitingRedirect:
		return "awaiting_redirect"
	case FlowAwaitingCodeExchange:
		return "awaiting_code_exchange"
	case FlowAuthenticated:
		return "authenticated"
	case FlowFailed:
		return "failed"
	}
	return "unknown"
}

type pkceState struct {
	CodeVerifier string `json:"code_verifier"`
	State        string `json:"state"`
}

// Flow drives an OAuth2 Authorization-Code-with-PKCE exchange against the
// authorization server. It runs orthogonally to the session context and
// writes the resulting token pair into the same credential store the
// dispatcher reads.
//
// The pending {verifier, state} pair lives in session-scoped storage for
// exactly one browser round-trip: persisted by [Flow.Begin], consumed once
// by [Flow.HandleCallback]. A stale pair from an abandoned attempt can only
// ever be consumed by a callback carrying its matching state.
type Flow struct {
	config      OAuthConfig
	client      *http.Client
	store       storage.Store
	credentials *CredentialStore
	metrics     *Metrics
	audit       func(ctx context.Context, eventType string, success bool, err error)

	mu      sync.Mutex
	state   FlowState
	failure error
}

// NewFlow creates a flow wired to the engine's HTTP client, session
// storage, and credential store. The OAuth section of the config must be
// populated.
func (e *Engine) NewFlow() (*Flow, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	cfg := e.config.OAuth
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Flow{
		config:      cfg,
		client:      e.httpClient,
		store:       e.sessionStore,
		credentials: e.credentials,
		metrics:     e.metrics,
		audit: func(ctx context.Context, eventType string, success bool, err error) {
			e.emitAudit(ctx, eventType, success, "", 0, err, nil)
		},
	}, nil
}

// State returns the current flow state.
func (f *Flow) State() FlowState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Err returns the failure that moved the flow into [FlowFailed], if any.
func (f *Flow) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failure
}

// Begin starts an authorization attempt: it generates a fresh code
// verifier and state nonce, persists them, and returns the authorization
// URL to navigate the user agent to. Beginning again before the callback
// replaces the pending attempt.
func (f *Flow) Begin(ctx context.Context) (string, error) {
	verifier, err := internal.NewCodeVerifier()
	if err != nil {
		return "", err
	}
	nonce, err := internal.NewStateNonce()
	if err != nil {
		return "", err
	}

	raw, err := json.Marshal(pkceState{CodeVerifier: verifier, State: nonce})
	if err != nil {
		return "", err
	}
	if err := f.store.Save(ctx, f.config.StateKey, string(raw)); err != nil {
		return "", err
	}

	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", f.config.ClientID)
	q.Set("redirect_uri", f.config.RedirectURI)
	q.Set("state", nonce)
	q.Set("code_challenge", internal.ChallengeS256(verifier))
	q.Set("code_challenge_method", "S256")
	if len(f.config.Scopes) > 0 {
		q.Set("scope", strings.Join(f.config.Scopes, " "))
	}

	sep := "?"
	if strings.Contains(f.config.AuthorizeURL, "?") {
		sep = "&"
	}

	f.mu.Lock()
	f.state = FlowAwaitingRedirect
	f.failure = nil
	f.mu.Unlock()

	f.metrics.Inc(MetricFlowStarted)
	f.emit(ctx, auditEventFlowStarted, true, nil)
	return f.config.AuthorizeURL + sep + q.Encode(), nil
}

// HandleCallback consumes the redirect back from the authorization server.
// A provider-reported error or a state mismatch is terminal and never
// triggers a token exchange; a matching callback exchanges the code and
// hands the token pair to the credential store.
func (f *Flow) HandleCallback(ctx context.Context, callbackURL string) error {
	u, err := url.Parse(callbackURL)
	if err != nil {
		return f.fail(ctx, fmt.Errorf("%w: %v", ErrCallbackInvalid, err))
	}
	q := u.Query()

	if provErr := q.Get("error"); provErr != "" {
		// The attempt is finished either way; drop the pending state.
		_ = f.store.Delete(ctx, f.config.StateKey)
		desc := q.Get("error_description")
		if desc == "" {
			desc = provErr
		}
		return f.fail(ctx, fmt.Errorf("%w: %s", ErrProviderDenied, desc))
	}

	raw, ok, err := f.store.Load(ctx, f.config.StateKey)
	if err != nil {
		return f.fail(ctx, err)
	}
	var pending pkceState
	if ok {
		if err := json.Unmarshal([]byte(raw), &pending); err != nil {
			ok = false
		}
	}

	// No pending attempt, or a nonce from someone else's redirect: either
	// way this callback is not ours. The pending state (if any) stays put
	// so the genuine callback can still complete.
	if !ok || pending.State == "" || q.Get("state") != pending.State {
		f.metrics.Inc(MetricFlowStateMismatch)
		f.emit(ctx, auditEventFlowStateMismatch, false, ErrStateMismatch)
		return f.fail(ctx, ErrStateMismatch)
	}

	code := q.Get("code")
	if code == "" {
		return f.fail(ctx, ErrCallbackInvalid)
	}

	f.mu.Lock()
	f.state = FlowAwaitingCodeExchange
	f.mu.Unlock()

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", f.config.RedirectURI)
	form.Set("client_id", f.config.ClientID)
	form.Set("code_verifier", pending.CodeVerifier)
	if f.config.ClientSecret != "" {
		form.Set("client_secret", f.config.ClientSecret)
	}

	pair, err := f.tokenRequest(ctx, form)
	if err != nil {
		return f.fail(ctx, err)
	}

	// Single use: the verifier is spent the moment the exchange succeeds.
	if err := f.store.Delete(ctx, f.config.StateKey); err != nil {
		return f.fail(ctx, err)
	}
	if err := f.credentials.Set(ctx, pair); err != nil {
		return f.fail(ctx, err)
	}

	f.mu.Lock()
	f.state = FlowAuthenticated
	f.failure = nil
	f.mu.Unlock()

	f.metrics.Inc(MetricFlowCompleted)
	f.emit(ctx, auditEventFlowCompleted, true, nil)
	return nil
}

// Refresh renews the OAuth session through the refresh_token grant at the
// same token endpoint.
func (f *Flow) Refresh(ctx context.Context) error {
	pair, ok, err := f.credentials.Get(ctx)
	if err != nil {
		return err
	}
	if !ok || pair.RefreshToken == "" {
		return ErrNoToken
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", pair.RefreshToken)
	form.Set("client_id", f.config.ClientID)
	if f.config.ClientSecret != "" {
		form.Set("client_secret", f.config.ClientSecret)
	}

	fresh, err := f.tokenRequest(ctx, form)
	if err != nil {
		return err
	}
	if fresh.RefreshToken == "" {
		fresh.RefreshToken = pair.RefreshToken
	}
	return f.credentials.Set(ctx, fresh)
}

func (f *Flow) tokenRequest(ctx context.Context, form url.Values) (TokenPair, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.config.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return TokenPair{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := f.client.Do(req)
	if err != nil {
		return TokenPair{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return TokenPair{}, err
	}

	if resp.StatusCode != http.StatusOK {
		var provider struct {
			Error       string `json:"error"`
			Description string `json:"error_description"`
		}
		if json.Unmarshal(body, &provider) == nil && provider.Error != "" {
			desc := provider.Description
			if desc == "" {
				desc = provider.Error
			}
			return TokenPair{}, fmt.Errorf("%w: %s", ErrExchangeFailed, desc)
		}
		return TokenPair{}, fmt.Errorf("%w: status %d", ErrExchangeFailed, resp.StatusCode)
	}

	var pair TokenPair
	if err := json.Unmarshal(body, &pair); err != nil {
		return TokenPair{}, fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}
	if pair.Empty() {
		return TokenPair{}, fmt.Errorf("%w: response carried no access token", ErrExchangeFailed)
	}
	return pair, nil
}

func (f *Flow) fail(ctx context.Context, err error) error {
	f.mu.Lock()
	f.state = FlowFailed
	f.failure = err
	f.mu.Unlock()

	f.metrics.Inc(MetricFlowFailed)
	f.emit(ctx, auditEventFlowFailed, false, err)
	return err
}

func (f *Flow) emit(ctx context.Context, eventType string, success bool, err error) {
	if f.audit == nil {
		return
	}
	f.audit(ctx, eventType, success, err)
}
