package goAuthClient

import (
	"io"
	"net/http"

	"github.com/MrEthical07/goAuthClient/claims"
	internalaudit "github.com/MrEthical07/goAuthClient/internal/audit"
)

// TokenPair is the bearer credential issued by the authorization server.
// The access token is an opaque signed JWT; the refresh token is opaque.
// It is owned exclusively by [CredentialStore]: written on login, refresh,
// and organization switch, cleared on logout or an irrecoverable 401.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
}

// Empty reports whether the pair carries no access token.
func (p TokenPair) Empty() bool {
	return p.AccessToken == ""
}

// DecodedClaims is the decoded payload of an access token. Claims are
// recomputed on demand and never cached, so they always reflect the live
// token.
type DecodedClaims = claims.AccessClaims

// UserProfile is the server-side representation of the authenticated user.
type UserProfile struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	Role        string   `json:"role,omitempty"`
	SuperAdmin  bool     `json:"is_superadmin,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

// Organization is one tenant a user may be scoped to.
type Organization struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
	Slug string `json:"slug,omitempty"`
}

// PrincipalSource records where the current principal came from.
type PrincipalSource uint8

const (
	// PrincipalFromServer means the principal was resolved from a profile
	// endpoint.
	PrincipalFromServer PrincipalSource = iota
	// PrincipalFromClaims means profile resolution hit a transport error
	// and the principal was rebuilt from locally decoded claims.
	PrincipalFromClaims
)

// Principal is the session-level identity: the authenticated user plus the
// organization the session is currently scoped to. Held only in Engine
// memory; invalidated on logout, expiry without refresh, or RefreshUser.
type Principal struct {
	User         UserProfile
	Organization *Organization
	Source       PrincipalSource
}

// LoginResult is returned by [Engine.Login]. When the account belongs to
// zero or several organizations the server withholds tokens until one is
// selected; NeedsOrgSelection is true and no token pair has been stored.
type LoginResult struct {
	Success           bool
	User              *UserProfile
	Organizations     []Organization
	NeedsOrgSelection bool
}

// RegisterRequest is the input for [Engine.Register].
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

// CallOptions configures a single dispatcher call. The body is a byte
// slice, not a reader, so the dispatcher can replay it on the one permitted
// retry.
type CallOptions struct {
	// Method defaults to GET.
	Method string
	// Body, when non-empty, is sent as application/json unless Header
	// overrides Content-Type.
	Body []byte
	// Header entries are copied onto the request before auth and CSRF
	// headers are applied.
	Header http.Header
}

// APIResponse is the dispatcher's HTTP-like result. Body interpretation
// belongs to the caller; [APIResponse.Envelope] offers the canonical
// normalized view.
type APIResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	// Retried is true when this response came from the post-refresh retry.
	Retried bool
}

// OK reports whether the status code is in the 2xx range.
func (r *APIResponse) OK() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// UnauthorizedPolicy selects what happens when a 401 survives the single
// refresh-and-retry. The surfaced response is identical either way; the
// policy only controls the side effect.
type UnauthorizedPolicy uint8

const (
	// UnauthorizedCallback invokes the handler registered through
	// [Builder.WithUnauthorizedHandler] (typically a redirect to login).
	UnauthorizedCallback UnauthorizedPolicy = iota
	// UnauthorizedNoop suppresses the side effect; callers that probe
	// endpoints expecting 401s use this.
	UnauthorizedNoop
)

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine's audit
// dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}
