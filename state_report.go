package goAuthClient

import "context"

// StateReport is a point-in-time snapshot of the engine's client-side
// state, for diagnostics endpoints and tests. It performs one storage read
// and never touches the network.
type StateReport struct {
	HasCredentials  bool
	AccessExpired   bool
	ClaimsDecodable bool
	SuperAdmin      bool
	OrganizationID  string

	HasPrincipal    bool
	PrincipalSource PrincipalSource
	SessionLoading  bool

	CSRFTokenHeld bool
	AuditDropped  uint64
}

// StateReport assembles a snapshot from the credential store, the session
// context, and the CSRF cache.
func (e *Engine) StateReport(ctx context.Context) StateReport {
	if e == nil {
		return StateReport{}
	}

	report := StateReport{
		SessionLoading: e.Loading(),
		CSRFTokenHeld:  e.csrf.cached() != "",
		AuditDropped:   e.AuditDropped(),
	}

	if p, ok := e.Principal(); ok {
		report.HasPrincipal = true
		report.PrincipalSource = p.Source
	}

	pair, ok, err := e.credentials.Get(ctx)
	if err != nil || !ok {
		return report
	}
	report.HasCredentials = true
	report.AccessExpired = e.credentials.IsExpired(pair.AccessToken)

	if c, ok := e.credentials.Decode(pair.AccessToken); ok {
		report.ClaimsDecodable = true
		report.SuperAdmin = c.SuperAdmin
		report.OrganizationID = c.OrganizationID
	}
	return report
}
