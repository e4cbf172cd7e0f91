package goAuthClient

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Call performs an authenticated API request against the configured server.
//
// The dispatcher decides per call whether CSRF protection applies (every
// non-safe method except the bootstrap allow-list), attaches the bearer
// token only when one exists and is unexpired, and on a 401 with a token
// present performs exactly one silent refresh followed by one retry. A
// second 401 is returned to the caller unchanged. Transport errors are
// surfaced as errors; HTTP error statuses are data, not errors.
func (e *Engine) Call(ctx context.Context, endpoint string, opts CallOptions) (*APIResponse, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	start := time.Now()
	resp, err := e.dispatch(ctx, endpoint, opts)
	e.metrics.Observe(MetricDispatchLatency, time.Since(start))
	return resp, err
}

func (e *Engine) dispatch(ctx context.Context, endpoint string, opts CallOptions) (*APIResponse, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	requestID := requestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
		ctx = WithRequestID(ctx, requestID)
	}

	// A token already known to be expired is renewed before the request
	// goes out; no point spending the round trip on a guaranteed 401. When
	// the refresh fails the request proceeds anonymously and the server has
	// the final word.
	if pair, ok, err := e.credentials.Get(ctx); err == nil && ok &&
		pair.RefreshToken != "" && e.credentials.IsExpired(pair.AccessToken) {
		_ = e.refreshCredentials(ctx)
	}

	var csrfToken string
	if e.csrfRequired(method, endpoint) {
		tok, err := e.csrf.Token(ctx)
		if err != nil {
			// Never send an unprotected mutating request.
			e.emitAudit(ctx, auditEventCSRFUnavailable, false, endpoint, 0, err, nil)
			return nil, err
		}
		csrfToken = tok
	}

	req, hadToken, err := e.buildRequest(ctx, method, endpoint, opts, requestID, csrfToken)
	if err != nil {
		return nil, err
	}

	resp, err := e.send(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	if !hadToken {
		// Nothing to refresh; the caller sent an anonymous request and the
		// server wants authentication.
		e.surfaceUnauthorized(ctx, endpoint, false)
		return resp, nil
	}

	if err := e.refreshCredentials(ctx); err != nil {
		e.surfaceUnauthorized(ctx, endpoint, true)
		return resp, nil
	}

	// Headers are rebuilt from scratch: the expiry check runs again against
	// the freshly stored token, and the CSRF cache may have rotated.
	if csrfToken != "" {
		if tok, err := e.csrf.Token(ctx); err == nil {
			csrfToken = tok
		}
	}
	retryReq, _, err := e.buildRequest(ctx, method, endpoint, opts, requestID, csrfToken)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricRetryAfterRefresh)
	e.emitAudit(ctx, auditEventRetryAfterRefresh, true, endpoint, 0, nil, nil)

	retryResp, err := e.send(retryReq)
	if err != nil {
		return nil, err
	}
	retryResp.Retried = true

	if retryResp.StatusCode == http.StatusUnauthorized {
		e.surfaceUnauthorized(ctx, endpoint, true)
	}
	return retryResp, nil
}

// buildRequest constructs the outgoing request. The bearer header is set
// from a fresh expiry check here, never from a value captured earlier in
// the call, so a token cannot expire between check and use.
func (e *Engine) buildRequest(
	ctx context.Context,
	method, endpoint string,
	opts CallOptions,
	requestID, csrfToken string,
) (*http.Request, bool, error) {
	var body io.Reader
	if len(opts.Body) > 0 {
		body = bytes.NewReader(opts.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, e.endpointURL(endpoint), body)
	if err != nil {
		return nil, false, err
	}

	for k, vs := range opts.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if len(opts.Body) > 0 && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-ID", requestID)
	if ua := e.config.Dispatch.UserAgent; ua != "" {
		req.Header.Set("User-Agent", ua)
	}
	if csrfToken != "" {
		req.Header.Set(e.config.CSRF.HeaderName, csrfToken)
	}

	hadToken := false
	if access, ok := e.credentials.CurrentAccess(ctx); ok {
		req.Header.Set("Authorization", "Bearer "+access)
		hadToken = true
	}

	return req, hadToken, nil
}

func (e *Engine) send(req *http.Request) (*APIResponse, error) {
	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	e.csrf.Rotate(resp)

	return &APIResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

// csrfRequired applies the synchronizer-token rule: all non-safe methods
// except the bootstrap endpoints, which by definition run before a
// session-bound token can exist.
func (e *Engine) csrfRequired(method, endpoint string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}
	switch endpoint {
	case e.config.Endpoints.Login, e.config.Endpoints.Register, e.config.Endpoints.Refresh:
		return false
	}
	return true
}

// surfaceUnauthorized records the terminal 401 and applies the configured
// policy. The CSRF cache is dropped either way: the session it was bound to
// is gone. The redirect side effect is reserved for lost sessions; an
// anonymous 401 (a failed login, a probe of a protected endpoint) never had
// one, so it is recorded but triggers no callback.
func (e *Engine) surfaceUnauthorized(ctx context.Context, endpoint string, hadToken bool) {
	e.csrf.Clear()
	e.metricInc(MetricUnauthorizedSurfaced)
	e.emitAudit(ctx, auditEventUnauthorized, false, endpoint, http.StatusUnauthorized, ErrUnauthorized, nil)

	if !hadToken || e.config.Dispatch.OnUnauthorized == UnauthorizedNoop {
		return
	}
	if e.onUnauthorized != nil {
		e.onUnauthorized()
	}
}
