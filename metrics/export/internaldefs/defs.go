package internaldefs

import (
	goSession "github.com/MrEthical07/goSession"
)

// CounterDef names one engine counter.
type CounterDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// HistogramDef names one engine histogram.
type HistogramDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in render order.
var CounterDefs = []CounterDef{
	{ID: goSession.MetricLoginSuccess, Name: "gosession_login_success_total", Help: "Successful logins."},
	{ID: goSession.MetricLoginFailure, Name: "gosession_login_failure_total", Help: "Failed logins."},
	{ID: goSession.MetricLoginRateLimited, Name: "gosession_login_rate_limited_total", Help: "Logins rejected by the throttle."},
	{ID: goSession.MetricSignupSuccess, Name: "gosession_signup_success_total", Help: "Created accounts."},
	{ID: goSession.MetricSignupDuplicate, Name: "gosession_signup_duplicate_total", Help: "Signups rejected because the email is taken."},
	{ID: goSession.MetricSignupRejected, Name: "gosession_signup_rejected_total", Help: "Signups rejected by input validation or password policy."},
	{ID: goSession.MetricTokensIssued, Name: "gosession_tokens_issued_total", Help: "Issued access/refresh token pairs."},
	{ID: goSession.MetricRefreshSuccess, Name: "gosession_refresh_success_total", Help: "Successful access-token refreshes."},
	{ID: goSession.MetricRefreshFailure, Name: "gosession_refresh_failure_total", Help: "Failed access-token refreshes."},
	{ID: goSession.MetricRefreshRevoked, Name: "gosession_refresh_revoked_total", Help: "Refreshes rejected because the record was revoked."},
	{ID: goSession.MetricRefreshRateLimited, Name: "gosession_refresh_rate_limited_total", Help: "Refreshes rejected by the throttle."},
	{ID: goSession.MetricLogout, Name: "gosession_logout_total", Help: "Authenticated logouts."},
	{ID: goSession.MetricLogoutAnonymous, Name: "gosession_logout_anonymous_total", Help: "Logouts without a valid access token."},
	{ID: goSession.MetricRecordsRevoked, Name: "gosession_records_revoked_total", Help: "Refresh records deleted by logout."},
	{ID: goSession.MetricGateContinue, Name: "gosession_gate_continue_total", Help: "Gate decisions that let the request through."},
	{ID: goSession.MetricGateRedirect, Name: "gosession_gate_redirect_total", Help: "Gate decisions that redirected."},
	{ID: goSession.MetricGateMisconfigured, Name: "gosession_gate_misconfigured_total", Help: "Gate calls on an engine that is not ready."},
	{ID: goSession.MetricStoreUnavailable, Name: "gosession_store_unavailable_total", Help: "Store calls that failed or timed out."},
	{ID: goSession.MetricActivityFailed, Name: "gosession_activity_failed_total", Help: "Activity events the sink failed to record."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: goSession.MetricGateLatency, Name: "gosession_gate_latency_seconds", Help: "Gate decision latency."},
}

// HistogramBounds are the upper bounds, in seconds, of the eight engine
// latency buckets.
var HistogramBounds = []string{
	"0.00005",
	"0.0001",
	"0.00025",
	"0.0005",
	"0.001",
	"0.005",
	"0.025",
	"+Inf",
}

// HistogramBoundSuffix renders each bound as a metric-name suffix for
// exporters without native histogram support.
var HistogramBoundSuffix = []string{
	"0_00005",
	"0_0001",
	"0_00025",
	"0_0005",
	"0_001",
	"0_005",
	"0_025",
	"inf",
}

// ActivityDroppedName is the counter for activity events dropped on a full
// dispatcher buffer. It is read from the engine, not from the snapshot.
const (
	ActivityDroppedName = "gosession_activity_dropped_total"
	ActivityDroppedHelp = "Activity events dropped because the dispatcher buffer was full."
)

// NormalizeBuckets copies raw into a fixed eight-slot array, zero-padding.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
