package goAuthClient

import (
	"context"
	"time"
)

const (
	auditEventLoginSuccess        = "login_success"
	auditEventLoginFailure        = "login_failure"
	auditEventLoginDeferred       = "login_deferred"
	auditEventOrgSelectSuccess    = "org_select_success"
	auditEventOrgSelectFailure    = "org_select_failure"
	auditEventRegisterSuccess     = "register_success"
	auditEventRegisterFailure     = "register_failure"
	auditEventRefreshSuccess      = "refresh_success"
	auditEventRefreshFailure      = "refresh_failure"
	auditEventRetryAfterRefresh   = "retry_after_refresh"
	auditEventUnauthorized        = "unauthorized_surfaced"
	auditEventCSRFUnavailable     = "csrf_unavailable"
	auditEventLogout              = "logout"
	auditEventLogoutServerError   = "logout_server_error"
	auditEventProfileFallback     = "profile_fallback"
	auditEventPrincipalCleared    = "principal_cleared"
	auditEventFlowStarted         = "flow_started"
	auditEventFlowCompleted       = "flow_completed"
	auditEventFlowFailed          = "flow_failed"
	auditEventFlowStateMismatch   = "flow_state_mismatch"
	auditEventCredentialsExpired  = "credentials_expired"
	auditEventCredentialsRestored = "credentials_restored"
)

// emitAudit builds and dispatches an audit event. The metadata closure is
// only invoked when auditing is enabled, keeping the disabled path
// allocation-free.
func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	endpoint string,
	status int,
	err error,
	metadata func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	event := AuditEvent{
		Timestamp: time.Now(),
		EventType: eventType,
		RequestID: requestIDFromContext(ctx),
		Endpoint:  endpoint,
		Status:    status,
		Success:   success,
	}
	if err != nil {
		event.Error = err.Error()
	}
	if c, ok := e.credentials.DecodeCurrent(ctx); ok {
		event.UserID = c.Subject
		event.OrganizationID = c.OrganizationID
	}
	if metadata != nil {
		event.Metadata = metadata()
	}

	e.audit.Emit(ctx, event)
}
