package goAuthClient

import (
	"context"
	"net/http"
)

type profilePayload struct {
	UserProfile
	Organization *Organization `json:"organization,omitempty"`
}

// Initialize restores the session from persisted state at process start. A
// stored, unexpired token resolves the principal from the server; an
// expired one is cleared along with the principal. Initialize never
// attempts a refresh: silent renewal is the dispatcher's job, triggered by
// the first real request.
func (e *Engine) Initialize(ctx context.Context) error {
	if e == nil {
		return ErrEngineNotReady
	}

	e.setLoading(true)
	defer e.setLoading(false)

	pair, ok, err := e.credentials.Get(ctx)
	if err != nil {
		return err
	}
	if !ok {
		e.setPrincipal(nil)
		return nil
	}

	if e.credentials.IsExpired(pair.AccessToken) {
		if err := e.credentials.Clear(ctx); err != nil {
			return err
		}
		e.csrf.Clear()
		e.setPrincipal(nil)
		e.emitAudit(ctx, auditEventCredentialsExpired, false, "", 0, ErrTokenExpired, nil)
		return nil
	}

	if err := e.resolvePrincipal(ctx); err != nil {
		return err
	}
	e.emitAudit(ctx, auditEventCredentialsRestored, true, "", 0, nil, nil)
	return nil
}

// RefreshUser re-resolves the principal from the server. Auth-shaped
// failures clear the principal; transport failures fall back to locally
// decoded claims so a network blip does not force a logged-out UI.
func (e *Engine) RefreshUser(ctx context.Context) error {
	if e == nil {
		return ErrEngineNotReady
	}
	return e.resolvePrincipal(ctx)
}

func (e *Engine) resolvePrincipal(ctx context.Context) error {
	access, ok := e.credentials.CurrentAccess(ctx)
	if !ok {
		e.setPrincipal(nil)
		return ErrNoToken
	}

	endpoint := e.config.Endpoints.Profile
	if e.credentials.IsSuperAdmin(access) {
		endpoint = e.config.Endpoints.AdminProfile
	}

	resp, err := e.Call(ctx, endpoint, CallOptions{})
	if err != nil {
		return e.fallbackToClaims(ctx, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		// Auth-shaped rejection: stale principal must not outlive it.
		e.setPrincipal(nil)
		e.emitAudit(ctx, auditEventPrincipalCleared, false, endpoint, resp.StatusCode, ErrUnauthorized, nil)
		return ErrUnauthorized
	case !resp.OK():
		// Server-side trouble that says nothing about our credentials.
		return e.fallbackToClaims(ctx, ErrUnauthorized)
	}

	env, err := resp.Envelope()
	if err != nil {
		return err
	}
	var payload profilePayload
	if err := env.Bind(&payload); err != nil {
		return err
	}

	e.setPrincipal(&Principal{
		User:         payload.UserProfile,
		Organization: payload.Organization,
		Source:       PrincipalFromServer,
	})
	return nil
}

// fallbackToClaims rebuilds the principal from the still-valid local token.
// Only profile resolution degrades this way; mutating calls never do.
func (e *Engine) fallbackToClaims(ctx context.Context, cause error) error {
	c, ok := e.credentials.DecodeCurrent(ctx)
	if !ok {
		e.setPrincipal(nil)
		return cause
	}

	p := &Principal{
		User: UserProfile{
			ID:          c.Subject,
			Email:       c.Email,
			Role:        c.Role,
			SuperAdmin:  c.SuperAdmin,
			Permissions: c.Permissions,
		},
		Source: PrincipalFromClaims,
	}
	if c.OrganizationID != "" {
		p.Organization = &Organization{ID: c.OrganizationID}
	}

	e.setPrincipal(p)
	e.metricInc(MetricProfileFallback)
	e.emitAudit(ctx, auditEventProfileFallback, true, "", 0, cause, nil)
	return nil
}
