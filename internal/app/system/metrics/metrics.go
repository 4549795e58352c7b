// Package metrics holds the portal's Prometheus collectors.
//
// Each Metrics value owns its own registry so tests can build as many as they
// like without tripping duplicate-registration panics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Fetch operation labels.
const (
	OpIdentity     = "identity"
	OpInteractions = "interactions"
)

// Outcome labels.
const (
	OutcomeOK        = "ok"
	OutcomeAbsent    = "absent"
	OutcomeFailed    = "failed"
	OutcomeDiscarded = "discarded"
	OutcomeRejected  = "rejected"
	OutcomeLimited   = "limited"
)

type Metrics struct {
	reg *prometheus.Registry

	FetchDuration *prometheus.HistogramVec
	SignOuts      *prometheus.CounterVec
	Mounts        prometheus.Counter
	SignIns       *prometheus.CounterVec
}

// New builds and registers the collectors, plus the standard Go and process collectors.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "portal",
			Subsystem: "dashboard",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of dashboard backend fetches by operation and outcome.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op", "outcome"}),
		SignOuts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Name:      "sign_outs_total",
			Help:      "Sign-out attempts by outcome.",
		}, []string{"outcome"}),
		Mounts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "portal",
			Subsystem: "dashboard",
			Name:      "mounts_total",
			Help:      "Dashboard view-state controllers mounted.",
		}),
		SignIns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Name:      "sign_ins_total",
			Help:      "Sign-in attempts by outcome.",
		}, []string{"outcome"}),
	}

	m.reg.MustRegister(
		m.FetchDuration,
		m.SignOuts,
		m.Mounts,
		m.SignIns,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveFetch records one fetch. A nil receiver is a no-op.
func (m *Metrics) ObserveFetch(op, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.FetchDuration.WithLabelValues(op, outcome).Observe(d.Seconds())
}

// CountSignOut records one sign-out attempt. A nil receiver is a no-op.
func (m *Metrics) CountSignOut(outcome string) {
	if m == nil {
		return
	}
	m.SignOuts.WithLabelValues(outcome).Inc()
}

// CountSignIn records one sign-in attempt. A nil receiver is a no-op.
func (m *Metrics) CountSignIn(outcome string) {
	if m == nil {
		return
	}
	m.SignIns.WithLabelValues(outcome).Inc()
}

// CountMount records a controller mount. A nil receiver is a no-op.
func (m *Metrics) CountMount() {
	if m == nil {
		return
	}
	m.Mounts.Inc()
}

// Registry exposes the underlying registry (tests gather from it).
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
