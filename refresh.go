package goAuthClient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
)

// refreshCredentials exchanges the stored refresh token for a new pair.
// Concurrent callers coalesce onto a single in-flight refresh: the first
// performs the network call and the rest receive its outcome. This is what
// keeps N overlapping 401s from burning N refresh tokens.
func (e *Engine) refreshCredentials(ctx context.Context) error {
	ch := e.refreshGroup.DoChan("refresh", func() (interface{}, error) {
		return nil, e.doRefresh(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		if res.Shared {
			e.metricInc(MetricRefreshCoalesced)
		}
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) doRefresh(ctx context.Context) error {
	pair, ok, err := e.credentials.Get(ctx)
	if err != nil {
		return err
	}
	if !ok || pair.RefreshToken == "" {
		return ErrNoToken
	}

	body, err := json.Marshal(map[string]string{"refresh_token": pair.RefreshToken})
	if err != nil {
		return err
	}

	// The refresh endpoint is a bootstrap endpoint: no CSRF header, no
	// bearer header. Cookies still ride along on the shared client.
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpointURL(e.config.Endpoints.Refresh), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshFailure, false, e.config.Endpoints.Refresh, 0, err, nil)
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	e.csrf.Rotate(resp)

	if resp.StatusCode != http.StatusOK {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshFailure, false, e.config.Endpoints.Refresh, resp.StatusCode, ErrRefreshFailed, nil)
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			// The refresh token itself is dead. Keeping it would retrigger
			// the same failure on every call.
			_ = e.credentials.Clear(ctx)
			e.emitAudit(ctx, auditEventCredentialsExpired, false, e.config.Endpoints.Refresh, resp.StatusCode, nil, nil)
		}
		return ErrRefreshFailed
	}

	env, err := ParseEnvelope(raw)
	if err != nil {
		return err
	}
	var fresh TokenPair
	if err := env.Bind(&fresh); err != nil {
		return err
	}
	if fresh.Empty() {
		e.metricInc(MetricRefreshFailure)
		return ErrRefreshFailed
	}
	if fresh.RefreshToken == "" {
		// Server rotated only the access token; keep the working refresh
		// token.
		fresh.RefreshToken = pair.RefreshToken
	}

	if err := e.credentials.Set(ctx, fresh); err != nil {
		return err
	}

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, auditEventRefreshSuccess, true, e.config.Endpoints.Refresh, resp.StatusCode, nil, nil)
	return nil
}
