package goAuthClient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

type loginPayload struct {
	User          *UserProfile   `json:"user"`
	Organizations []Organization `json:"organizations"`
	AccessToken   string         `json:"access_token"`
	RefreshToken  string         `json:"refresh_token"`
	ExpiresIn     int64          `json:"expires_in"`
	TokenType     string         `json:"token_type"`
}

func (p *loginPayload) tokenPair() TokenPair {
	return TokenPair{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		ExpiresIn:    p.ExpiresIn,
		TokenType:    p.TokenType,
	}
}

// Login authenticates with email and password. Login is two-phase: when
// the account belongs to exactly one organization the server issues a
// scoped token pair immediately; with zero or several organizations the
// response carries no tokens and NeedsOrgSelection is set — identity is
// proven, but the working token waits for [Engine.SelectOrganization].
func (e *Engine) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, err
	}

	resp, err := e.Call(ctx, e.config.Endpoints.Login, CallOptions{Method: http.MethodPost, Body: body})
	if err != nil {
		e.metricInc(MetricLoginFailure)
		return nil, err
	}

	if !resp.OK() {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, e.config.Endpoints.Login, resp.StatusCode, ErrLoginFailed, func() map[string]string {
			return map[string]string{"identifier": email}
		})
		if env, envErr := resp.Envelope(); envErr == nil && env.Message != "" {
			return &LoginResult{}, fmt.Errorf("%w: %s", ErrLoginFailed, env.Message)
		}
		return &LoginResult{}, ErrLoginFailed
	}

	env, err := resp.Envelope()
	if err != nil {
		return nil, err
	}
	var payload loginPayload
	if err := env.Bind(&payload); err != nil {
		return nil, err
	}

	result := &LoginResult{
		Success:       true,
		User:          payload.User,
		Organizations: payload.Organizations,
	}

	if payload.AccessToken == "" {
		// Phase one complete, no scoped token yet.
		result.NeedsOrgSelection = true
		e.metricInc(MetricLoginDeferred)
		e.emitAudit(ctx, auditEventLoginDeferred, true, e.config.Endpoints.Login, resp.StatusCode, nil, func() map[string]string {
			return map[string]string{"organizations": fmt.Sprintf("%d", len(payload.Organizations))}
		})
		return result, nil
	}

	if err := e.credentials.Set(ctx, payload.tokenPair()); err != nil {
		return nil, err
	}
	e.adoptPrincipal(ctx, payload.User)

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, e.config.Endpoints.Login, resp.StatusCode, nil, nil)
	return result, nil
}

// SelectOrganization completes a two-phase login by binding the session to
// one tenant. The server answers with the scoped token pair.
func (e *Engine) SelectOrganization(ctx context.Context, organizationID string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	if organizationID == "" {
		return ErrOrganizationRequired
	}

	body, err := json.Marshal(map[string]string{"organization_id": organizationID})
	if err != nil {
		return err
	}

	resp, err := e.Call(ctx, e.config.Endpoints.OrgSelect, CallOptions{Method: http.MethodPost, Body: body})
	if err != nil {
		e.metricInc(MetricOrgSelectFailure)
		return err
	}
	if !resp.OK() {
		e.metricInc(MetricOrgSelectFailure)
		e.emitAudit(ctx, auditEventOrgSelectFailure, false, e.config.Endpoints.OrgSelect, resp.StatusCode, nil, func() map[string]string {
			return map[string]string{"organization_id": organizationID}
		})
		return fmt.Errorf("organization selection rejected with status %d", resp.StatusCode)
	}

	env, err := resp.Envelope()
	if err != nil {
		return err
	}
	var payload loginPayload
	if err := env.Bind(&payload); err != nil {
		return err
	}
	if payload.AccessToken == "" {
		return fmt.Errorf("organization selection returned no token")
	}

	if err := e.credentials.Set(ctx, payload.tokenPair()); err != nil {
		return err
	}
	e.adoptPrincipal(ctx, payload.User)

	e.metricInc(MetricOrgSelectSuccess)
	e.emitAudit(ctx, auditEventOrgSelectSuccess, true, e.config.Endpoints.OrgSelect, resp.StatusCode, nil, nil)
	return nil
}

// Register creates an account through the CSRF-exempt bootstrap endpoint.
// Depending on server policy the response may carry tokens (auto-login) or
// defer to organization selection like Login does.
func (e *Engine) Register(ctx context.Context, reg RegisterRequest) (*LoginResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	body, err := json.Marshal(reg)
	if err != nil {
		return nil, err
	}

	resp, err := e.Call(ctx, e.config.Endpoints.Register, CallOptions{Method: http.MethodPost, Body: body})
	if err != nil {
		e.metricInc(MetricRegisterFailure)
		return nil, err
	}
	if !resp.OK() {
		e.metricInc(MetricRegisterFailure)
		e.emitAudit(ctx, auditEventRegisterFailure, false, e.config.Endpoints.Register, resp.StatusCode, nil, nil)
		if env, envErr := resp.Envelope(); envErr == nil && env.Message != "" {
			return &LoginResult{}, fmt.Errorf("registration failed: %s", env.Message)
		}
		return &LoginResult{}, fmt.Errorf("registration rejected with status %d", resp.StatusCode)
	}

	env, err := resp.Envelope()
	if err != nil {
		return nil, err
	}
	var payload loginPayload
	if err := env.Bind(&payload); err != nil {
		return nil, err
	}

	result := &LoginResult{
		Success:       true,
		User:          payload.User,
		Organizations: payload.Organizations,
	}
	if payload.AccessToken == "" {
		result.NeedsOrgSelection = true
	} else {
		if err := e.credentials.Set(ctx, payload.tokenPair()); err != nil {
			return nil, err
		}
		e.adoptPrincipal(ctx, payload.User)
	}

	e.metricInc(MetricRegisterSuccess)
	e.emitAudit(ctx, auditEventRegisterSuccess, true, e.config.Endpoints.Register, resp.StatusCode, nil, nil)
	return result, nil
}

// adoptPrincipal sets the in-memory principal from a login-shaped payload,
// preferring the server profile and filling the organization scope from
// the freshly stored token's claims.
func (e *Engine) adoptPrincipal(ctx context.Context, user *UserProfile) {
	c, ok := e.credentials.DecodeCurrent(ctx)

	p := &Principal{Source: PrincipalFromServer}
	switch {
	case user != nil:
		p.User = *user
	case ok:
		p.User = UserProfile{
			ID:          c.Subject,
			Email:       c.Email,
			Role:        c.Role,
			SuperAdmin:  c.SuperAdmin,
			Permissions: c.Permissions,
		}
		p.Source = PrincipalFromClaims
	default:
		e.setPrincipal(nil)
		return
	}

	if ok && c.OrganizationID != "" {
		p.Organization = &Organization{ID: c.OrganizationID}
	}
	e.setPrincipal(p)
}
