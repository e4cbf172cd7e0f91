package goAuthClient

import "errors"

var (
	// ErrEngineNotReady is returned when an Engine method is called before
	// the engine was constructed through [Builder.Build].
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrNoToken is returned when an operation requires a stored token pair
	// and none is present.
	ErrNoToken = errors.New("no stored token")
	// ErrTokenExpired is returned when the stored access token is past its
	// decoded expiry and no refresh is possible.
	ErrTokenExpired = errors.New("access token expired")
	// ErrCSRFUnavailable is returned when no CSRF synchronizer token could
	// be obtained after the bootstrap retries. The enclosing mutating
	// request is failed locally and never sent.
	ErrCSRFUnavailable = errors.New("csrf token unavailable")
	// ErrRefreshFailed is returned when the silent token refresh was
	// rejected by the server.
	ErrRefreshFailed = errors.New("token refresh failed")
	// ErrUnauthorized is returned when the server rejected the request with
	// 401 after the single refresh-and-retry was exhausted.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrLoginFailed is returned when the login endpoint rejected the
	// submitted credentials.
	ErrLoginFailed = errors.New("login failed")
	// ErrOrganizationRequired is returned when phase-two login is attempted
	// without a pending organization selection.
	ErrOrganizationRequired = errors.New("organization selection required")
	// ErrNoPrincipal is returned when no authenticated principal is
	// available in the session context.
	ErrNoPrincipal = errors.New("no authenticated principal")
	// ErrEnvelopeInvalid is returned when a response body could not be
	// normalized into the canonical envelope.
	ErrEnvelopeInvalid = errors.New("invalid response envelope")
	// ErrFlowState is returned when a Flow operation is invoked from a
	// state that does not permit it.
	ErrFlowState = errors.New("invalid flow state")
	// ErrStateMismatch is returned when the OAuth callback carries a state
	// nonce that does not match the persisted one. The authorization code
	// is never exchanged in this case.
	ErrStateMismatch = errors.New("authorization state mismatch")
	// ErrProviderDenied is returned when the authorization server reported
	// an error on redirect or at code exchange. Terminal, never retried.
	ErrProviderDenied = errors.New("authorization provider error")
	// ErrExchangeFailed is returned when the token endpoint rejected the
	// code exchange or refresh grant.
	ErrExchangeFailed = errors.New("token exchange failed")
	// ErrCallbackInvalid is returned when the OAuth callback URL is
	// missing required parameters.
	ErrCallbackInvalid = errors.New("invalid authorization callback")
	// ErrStorageUnavailable is returned when the configured persistence
	// backend failed a read or write.
	ErrStorageUnavailable = errors.New("credential storage unavailable")
)
