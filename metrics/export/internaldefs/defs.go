package internaldefs

import (
	goAuthClient "github.com/MrEthical07/goAuthClient"
)

// CounterDef binds a core metric ID to its exported name and help text.
type CounterDef struct {
	ID   goAuthClient.MetricID
	Name string
	Help string
}

// HistogramDef binds a core histogram ID to its exported name and help text.
type HistogramDef struct {
	ID   goAuthClient.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in a stable order.
var CounterDefs = []CounterDef{
	{ID: goAuthClient.MetricLoginSuccess, Name: "goauthclient_login_success_total", Help: "Logins that stored a scoped token pair."},
	{ID: goAuthClient.MetricLoginFailure, Name: "goauthclient_login_failure_total", Help: "Rejected login attempts."},
	{ID: goAuthClient.MetricLoginDeferred, Name: "goauthclient_login_deferred_total", Help: "Phase-one logins awaiting organization selection."},
	{ID: goAuthClient.MetricOrgSelectSuccess, Name: "goauthclient_org_select_success_total", Help: "Successful organization selections."},
	{ID: goAuthClient.MetricOrgSelectFailure, Name: "goauthclient_org_select_failure_total", Help: "Failed organization selections."},
	{ID: goAuthClient.MetricRegisterSuccess, Name: "goauthclient_register_success_total", Help: "Successful registrations."},
	{ID: goAuthClient.MetricRegisterFailure, Name: "goauthclient_register_failure_total", Help: "Failed registrations."},
	{ID: goAuthClient.MetricRefreshSuccess, Name: "goauthclient_refresh_success_total", Help: "Silent refreshes that stored new tokens."},
	{ID: goAuthClient.MetricRefreshFailure, Name: "goauthclient_refresh_failure_total", Help: "Refresh attempts the server rejected."},
	{ID: goAuthClient.MetricRefreshCoalesced, Name: "goauthclient_refresh_coalesced_total", Help: "Callers that shared a single in-flight refresh."},
	{ID: goAuthClient.MetricRetryAfterRefresh, Name: "goauthclient_retry_after_refresh_total", Help: "Requests re-issued once after a refresh."},
	{ID: goAuthClient.MetricUnauthorizedSurfaced, Name: "goauthclient_unauthorized_surfaced_total", Help: "401 responses surfaced to callers after the single refresh-and-retry."},
	{ID: goAuthClient.MetricCSRFBootstrap, Name: "goauthclient_csrf_bootstrap_total", Help: "Bootstrap fetches that yielded a synchronizer token."},
	{ID: goAuthClient.MetricCSRFBootstrapFailure, Name: "goauthclient_csrf_bootstrap_failure_total", Help: "Bootstrap fetches that yielded no token."},
	{ID: goAuthClient.MetricCSRFRotated, Name: "goauthclient_csrf_rotated_total", Help: "Synchronizer token cache overwrites from response headers."},
	{ID: goAuthClient.MetricCSRFUnavailable, Name: "goauthclient_csrf_unavailable_total", Help: "Mutating calls blocked locally because no synchronizer token could be obtained."},
	{ID: goAuthClient.MetricFlowStarted, Name: "goauthclient_flow_started_total", Help: "PKCE flows that built an authorization URL."},
	{ID: goAuthClient.MetricFlowCompleted, Name: "goauthclient_flow_completed_total", Help: "PKCE flows that exchanged a code for tokens."},
	{ID: goAuthClient.MetricFlowFailed, Name: "goauthclient_flow_failed_total", Help: "PKCE flows that reached the failed state."},
	{ID: goAuthClient.MetricFlowStateMismatch, Name: "goauthclient_flow_state_mismatch_total", Help: "Callbacks rejected on state nonce mismatch."},
	{ID: goAuthClient.MetricLogout, Name: "goauthclient_logout_total", Help: "Logout operations."},
	{ID: goAuthClient.MetricProfileFallback, Name: "goauthclient_profile_fallback_total", Help: "Principal resolutions that fell back to locally decoded claims."},
}

// HistogramDefs lists every exported histogram in a stable order.
var HistogramDefs = []HistogramDef{
	{ID: goAuthClient.MetricDispatchLatency, Name: "goauthclient_dispatch_latency_seconds", Help: "Dispatch latency histogram, including the single refresh-and-retry when one happened."},
}

// HistogramBounds holds the upper bound labels for the fixed bucket layout.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix holds OTel-safe name suffixes matching HistogramBounds.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates a raw snapshot slice to the fixed
// bucket layout.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into the cumulative form
// Prometheus and OTel expect.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
