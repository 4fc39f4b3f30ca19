package internaldefs

import (
	"math"

	examAuth "github.com/MrEthical07/examAuth"
)

// CounterDef names one counter for every exporter.
type CounterDef struct {
	ID   examAuth.MetricID
	Name string
	Help string
}

// HistogramDef names one histogram for every exporter.
type HistogramDef struct {
	ID   examAuth.MetricID
	Name string
	Help string
}

// AuditDroppedName is the counter of audit events lost to backpressure.
const AuditDroppedName = "examauth_audit_dropped_total"

// AuditDroppedHelp describes AuditDroppedName.
const AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."

// CounterDefs lists every counter in export order.
var CounterDefs = []CounterDef{
	{ID: examAuth.MetricLoginSuccess, Name: "examauth_login_success_total", Help: "Logins that produced a session."},
	{ID: examAuth.MetricLoginFailure, Name: "examauth_login_failure_total", Help: "Logins rejected by the platform or the transport."},
	{ID: examAuth.MetricRefreshSuccess, Name: "examauth_refresh_success_total", Help: "Token pairs renewed and persisted."},
	{ID: examAuth.MetricRefreshFailure, Name: "examauth_refresh_failure_total", Help: "Failed token renewals."},
	{ID: examAuth.MetricRefreshShared, Name: "examauth_refresh_shared_total", Help: "Refresh callers served by a renewal shared with concurrent callers."},
	{ID: examAuth.MetricProfileFetch, Name: "examauth_profile_fetch_total", Help: "Successful profile fetches."},
	{ID: examAuth.MetricProfileRetry, Name: "examauth_profile_retry_total", Help: "Profile fetches retried after an expired token."},
	{ID: examAuth.MetricProfileFailure, Name: "examauth_profile_failure_total", Help: "Profile fetches that returned an error."},
	{ID: examAuth.MetricLogout, Name: "examauth_logout_total", Help: "Logouts."},
	{ID: examAuth.MetricPermissionDenied, Name: "examauth_permission_denied_total", Help: "Operations refused by the local access policy."},
	{ID: examAuth.MetricNotAuthenticated, Name: "examauth_not_authenticated_total", Help: "Operations refused for lack of a session."},
	{ID: examAuth.MetricCaptchaIssued, Name: "examauth_captcha_issued_total", Help: "Captcha challenges received."},
	{ID: examAuth.MetricCaptchaUnavailable, Name: "examauth_captcha_unavailable_total", Help: "Captcha requests without a usable challenge."},
	{ID: examAuth.MetricUserOperation, Name: "examauth_user_operation_total", Help: "Successful user-management calls."},
	{ID: examAuth.MetricProtocolViolation, Name: "examauth_protocol_violation_total", Help: "Remote results that broke the response contract."},
	{ID: examAuth.MetricStoreFailure, Name: "examauth_store_failure_total", Help: "Session store errors."},
}

// HistogramDefs lists every histogram in export order.
var HistogramDefs = []HistogramDef{
	{ID: examAuth.MetricRemoteLatency, Name: "examauth_remote_latency_seconds", Help: "Latency of remote platform calls."},
}

// HistogramBounds are the bucket upper bounds in seconds, as exposition labels.
var HistogramBounds = []string{
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"1",
	"2.5",
	"+Inf",
}

// HistogramBoundValues are HistogramBounds as numbers.
var HistogramBoundValues = []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, math.Inf(1)}

// HistogramBoundSuffix are HistogramBounds made safe for instrument names.
var HistogramBoundSuffix = []string{
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"1",
	"2_5",
	"inf",
}

// NormalizeBuckets pads or truncates raw to the fixed bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
