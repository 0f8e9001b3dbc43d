// Package metrics exposes Prometheus counters for the authentication
// surface.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	OutcomeSuccess      = "success"
	OutcomeInvalid      = "invalid_credentials"
	OutcomeInvalidInput = "invalid_input"
	OutcomeDuplicate    = "duplicate"
	OutcomeNotActivated = "not_activated"
	OutcomeRateLimited  = "rate_limited"
	OutcomeRejected     = "rejected"
	OutcomeError        = "error"
)

// Metrics owns a private registry so several servers (and tests) can
// coexist in one process. A nil *Metrics records nothing.
type Metrics struct {
	registry     *prometheus.Registry
	signIns      *prometheus.CounterVec
	signUps      *prometheus.CounterVec
	gateDenials  prometheus.Counter
	tokenReissue *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		signIns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobtracker_signin_attempts_total",
			Help: "Sign-in attempts by outcome",
		}, []string{"outcome"}),
		signUps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobtracker_signup_attempts_total",
			Help: "Sign-up attempts by outcome",
		}, []string{"outcome"}),
		gateDenials: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jobtracker_gate_denials_total",
			Help: "Requests rejected by the authentication gate",
		}),
		tokenReissue: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobtracker_token_reissues_total",
			Help: "Session token reissues by outcome",
		}, []string{"outcome"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.signIns,
		m.signUps,
		m.gateDenials,
		m.tokenReissue,
	)
	return m
}

func (m *Metrics) RecordSignIn(outcome string) {
	if m == nil {
		return
	}
	m.signIns.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordSignUp(outcome string) {
	if m == nil {
		return
	}
	m.signUps.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordGateDenial() {
	if m == nil {
		return
	}
	m.gateDenials.Inc()
}

func (m *Metrics) RecordReissue(outcome string) {
	if m == nil {
		return
	}
	m.tokenReissue.WithLabelValues(outcome).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}
