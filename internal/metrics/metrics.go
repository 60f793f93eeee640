// Package metrics exposes Prometheus counters for the session controller.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the metrics surface used by the session controller.
type Recorder interface {
	RecordOperation(op string, kind string)
	RecordSessionEvent(eventType string)
	RecordProfileFetchAttempt()
	RecordProfileProvisioned(conflict bool)
	RecordSafetyTimeout()
}

// Collector records controller metrics in Prometheus.
type Collector struct {
	operations        *prometheus.CounterVec
	sessionEvents     *prometheus.CounterVec
	profileAttempts   prometheus.Counter
	profileProvisions *prometheus.CounterVec
	safetyTimeouts    prometheus.Counter
}

var _ Recorder = (*Collector)(nil)

// NewCollector creates a Collector and registers it with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "qubras_auth_operations_total",
			Help: "Auth operations by name and result kind (ok on success).",
		}, []string{"op", "result"}),
		sessionEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "qubras_auth_session_events_total",
			Help: "Session change events received from the identity provider.",
		}, []string{"type"}),
		profileAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "qubras_auth_profile_fetch_attempts_total",
			Help: "Profile fetch attempts including retries.",
		}),
		profileProvisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "qubras_auth_profile_provisions_total",
			Help: "Default profiles provisioned, split by whether another writer won the race.",
		}, []string{"conflict"}),
		safetyTimeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "qubras_auth_safety_timeouts_total",
			Help: "Times the loading watchdog forced loading off.",
		}),
	}

	reg.MustRegister(
		c.operations,
		c.sessionEvents,
		c.profileAttempts,
		c.profileProvisions,
		c.safetyTimeouts,
	)

	return c
}

func (c *Collector) RecordOperation(op string, kind string) {
	if kind == "" {
		kind = "ok"
	}
	c.operations.WithLabelValues(op, kind).Inc()
}

func (c *Collector) RecordSessionEvent(eventType string) {
	c.sessionEvents.WithLabelValues(eventType).Inc()
}

func (c *Collector) RecordProfileFetchAttempt() {
	c.profileAttempts.Inc()
}

func (c *Collector) RecordProfileProvisioned(conflict bool) {
	label := "false"
	if conflict {
		label = "true"
	}
	c.profileProvisions.WithLabelValues(label).Inc()
}

func (c *Collector) RecordSafetyTimeout() {
	c.safetyTimeouts.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(reg prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// Noop discards every record.
type Noop struct{}

var _ Recorder = Noop{}

func (Noop) RecordOperation(string, string) {}
func (Noop) RecordSessionEvent(string)      {}
func (Noop) RecordProfileFetchAttempt()     {}
func (Noop) RecordProfileProvisioned(bool)  {}
func (Noop) RecordSafetyTimeout()           {}
