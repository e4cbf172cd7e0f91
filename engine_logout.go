package goAuthClient

import (
	"context"
	"net/http"
)

// Logout notifies the server, then clears all local session state. The
// server call is best-effort: whatever it returns, the credential store,
// the CSRF cache, and the in-memory principal are gone afterwards, so the
// user can never be stuck logged-in client-side.
func (e *Engine) Logout(ctx context.Context) error {
	if e == nil {
		return ErrEngineNotReady
	}

	resp, err := e.Call(ctx, e.config.Endpoints.Logout, CallOptions{Method: http.MethodPost})
	if err != nil || !resp.OK() {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		e.emitAudit(ctx, auditEventLogoutServerError, false, e.config.Endpoints.Logout, status, err, nil)
	}

	clearErr := e.credentials.Clear(ctx)
	e.csrf.Clear()
	e.setPrincipal(nil)

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogout, clearErr == nil, e.config.Endpoints.Logout, 0, clearErr, nil)
	return clearErr
}
