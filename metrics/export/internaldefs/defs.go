package internaldefs

import (
	"github.com/MrEthical07/credauth"
)

// CounterDef names one engine counter for exporters.
type CounterDef struct {
	ID   credauth.MetricID
	Name string
	Help string
}

// HistogramDef names one engine histogram for exporters.
type HistogramDef struct {
	ID   credauth.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in render order.
var CounterDefs = []CounterDef{
	{ID: credauth.MetricRegisterSuccess, Name: "credauth_register_success_total", Help: "Successful registrations."},
	{ID: credauth.MetricRegisterDuplicate, Name: "credauth_register_duplicate_total", Help: "Registrations rejected because the username exists."},
	{ID: credauth.MetricRegisterInvalid, Name: "credauth_register_invalid_total", Help: "Registrations rejected by input validation."},
	{ID: credauth.MetricLoginSuccess, Name: "credauth_login_success_total", Help: "Successful logins."},
	{ID: credauth.MetricLoginUserNotFound, Name: "credauth_login_user_not_found_total", Help: "Logins for an unknown username."},
	{ID: credauth.MetricLoginWrongPassword, Name: "credauth_login_wrong_password_total", Help: "Logins with a wrong password."},
	{ID: credauth.MetricLoginMalformedDigest, Name: "credauth_login_malformed_digest_total", Help: "Logins against a stored digest that could not be parsed."},
	{ID: credauth.MetricTOTPRequired, Name: "credauth_totp_required_total", Help: "Logins rejected for a missing second factor code."},
	{ID: credauth.MetricTOTPFailure, Name: "credauth_totp_failure_total", Help: "Rejected second factor codes."},
	{ID: credauth.MetricTOTPSuccess, Name: "credauth_totp_success_total", Help: "Accepted second factor codes."},
	{ID: credauth.MetricTOTPSetup, Name: "credauth_totp_setup_total", Help: "Second factor enrollments."},
	{ID: credauth.MetricLogout, Name: "credauth_logout_total", Help: "Logouts that ended a live session."},
	{ID: credauth.MetricSessionCreated, Name: "credauth_session_created_total", Help: "Created sessions."},
	{ID: credauth.MetricSessionDestroyed, Name: "credauth_session_destroyed_total", Help: "Sessions ended by logout or shutdown."},
	{ID: credauth.MetricSessionExpiredIdle, Name: "credauth_session_expired_idle_total", Help: "Sessions ended by the idle timer."},
	{ID: credauth.MetricSessionExpiredAbsolute, Name: "credauth_session_expired_absolute_total", Help: "Sessions ended by the absolute timer."},
	{ID: credauth.MetricInfrastructureError, Name: "credauth_infrastructure_error_total", Help: "Operations failed by storage, hashing or code generation."},
}

// SeriesDef names a series read from the engine directly rather than from a
// metrics snapshot.
type SeriesDef struct {
	Name string
	Help string
}

var (
	// AuditDropped counts audit events lost to a full buffer or an abandoned wait.
	AuditDropped = SeriesDef{Name: "credauth_audit_dropped_total", Help: "Audit events that never reached the sink."}
	// ActiveSessions is the live session table size.
	ActiveSessions = SeriesDef{Name: "credauth_active_sessions", Help: "Sessions currently held in memory."}
)

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: credauth.MetricLoginLatency, Name: "credauth_login_latency_seconds", Help: "Login latency histogram."},
}

// HistogramBounds are the Prometheus le labels matching the engine buckets.
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

// NormalizeBuckets copies raw into a fixed array, zero filling short input.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
