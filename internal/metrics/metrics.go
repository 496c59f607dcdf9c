package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	auditEntriesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fairway_audit_entries_total",
		Help: "Total number of audit log entries appended",
	})
	auditDeniedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fairway_audit_denied_total",
		Help: "Total number of writes rejected by field permission checks",
	})
	auditSinkFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fairway_audit_sink_failures_total",
		Help: "Total number of failed audit log append attempts",
	})
	registrationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fairway_event_registrations_total",
		Help: "Total number of event registrations created",
	})
)

// Register registers Prometheus collectors. Call once at startup.
func Register(registry *prometheus.Registry) {
	registry.MustRegister(auditEntriesTotal, auditDeniedTotal, auditSinkFailuresTotal, registrationsTotal)
}

// IncAuditEntries adds n to the appended audit entries counter.
func IncAuditEntries(n int) { auditEntriesTotal.Add(float64(n)) }

// IncAuditDenied increments the permission denial counter.
func IncAuditDenied() { auditDeniedTotal.Inc() }

// IncAuditSinkFailure increments the sink failure counter.
func IncAuditSinkFailure() { auditSinkFailuresTotal.Inc() }

// IncRegistration increments the event registration counter.
func IncRegistration() { registrationsTotal.Inc() }
