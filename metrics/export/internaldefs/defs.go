package internaldefs

import (
	authcore "github.com/arcvale/authcore"
)

// CounterDef binds a counter MetricID to its exported name and help text.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   authcore.MetricID
	Name string
	Help string
}

// HistogramDef binds a histogram MetricID to its exported name and help text.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistogramDef struct {
	ID   authcore.MetricID
	Name string
	Help string
}

// CounterDefs lists every counter both exporters publish, in snapshot order.
var CounterDefs = []CounterDef{
	{ID: authcore.MetricLoginSuccess, Name: "authcore_login_success_total", Help: "Successful login attempts."},
	{ID: authcore.MetricLoginFailure, Name: "authcore_login_failure_total", Help: "Failed login attempts."},
	{ID: authcore.MetricLoginLocked, Name: "authcore_login_locked_total", Help: "Login attempts rejected by an active lockout."},
	{ID: authcore.MetricLoginInactive, Name: "authcore_login_inactive_total", Help: "Login attempts against deactivated accounts."},
	{ID: authcore.MetricRegistrationSuccess, Name: "authcore_registration_success_total", Help: "Successful account registrations."},
	{ID: authcore.MetricRegistrationDuplicate, Name: "authcore_registration_duplicate_total", Help: "Registration attempts rejected as duplicate."},
	{ID: authcore.MetricPasswordResetRequest, Name: "authcore_password_reset_request_total", Help: "Password reset requests."},
	{ID: authcore.MetricPasswordResetConfirmSuccess, Name: "authcore_password_reset_confirm_success_total", Help: "Successful password reset confirmations."},
	{ID: authcore.MetricPasswordResetConfirmFailure, Name: "authcore_password_reset_confirm_failure_total", Help: "Failed password reset confirmations."},
	{ID: authcore.MetricProfileUpdated, Name: "authcore_profile_updated_total", Help: "Profile update operations."},
	{ID: authcore.MetricRoleChanged, Name: "authcore_role_changed_total", Help: "Role change operations."},
	{ID: authcore.MetricAccountDeleted, Name: "authcore_account_deleted_total", Help: "Account delete operations."},
	{ID: authcore.MetricAuditWriteFailure, Name: "authcore_audit_write_failure_total", Help: "Audit trail writes that failed."},
	{ID: authcore.MetricAuditDropped, Name: "authcore_audit_dropped_total", Help: "Audit events dropped by the async dispatcher."},
}

// HistogramDefs lists every histogram both exporters publish.
var HistogramDefs = []HistogramDef{
	{ID: authcore.MetricLoginLatency, Name: "authcore_login_latency_seconds", Help: "Login latency histogram."},
}

// HistogramBounds holds the upper bucket bounds in Prometheus le-label form.
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

// HistogramBoundSuffix holds bound suffixes safe for OTel instrument names.
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

// NormalizeBuckets copies a raw bucket slice into the fixed 8-bucket layout,
// truncating or zero-padding as needed.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into the cumulative form
// Prometheus histograms expose.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
