package guard

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/coder/phaseguard/lifecycle"
)

const (
	MetricChecksTotal = "phaseguard_checks_total"

	resultPass      = "pass"
	resultFail      = "fail"
	resultPermitted = "permitted"
)

// Metrics counts budget checks by phase and result. A nil *Metrics counts
// nothing.
type Metrics struct {
	checks *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		checks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricChecksTotal,
			Help: "Total number of phase budget checks, by phase and result (pass, fail, permitted).",
		}, []string{"phase", "result"}),
	}
	reg.MustRegister(m.checks)
	return m
}

func (m *Metrics) observe(phase lifecycle.Phase, result string) {
	if m == nil {
		return
	}
	m.checks.WithLabelValues(phase.String(), result).Inc()
}
