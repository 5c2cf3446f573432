package rewrite

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts rewrite activity. A nil *Metrics records nothing.
type Metrics struct {
	rewrites *prometheus.CounterVec
	rejected *prometheus.CounterVec
	sweeps   prometheus.Histogram
}

// NewMetrics registers the rewrite metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		// rewrites counts accepted matches by pass
		rewrites: f.NewCounterVec(prometheus.CounterOpts{
			Name: "irpass_rewrites_total",
			Help: "Total rewrites applied by pass",
		}, []string{"pass"}),

		// rejected counts anchors of the right type that were not rewritten,
		// whether the structure or the predicate turned them down. An anchor
		// is counted once per sweep.
		rejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "irpass_candidates_rejected_total",
			Help: "Total candidate anchors rejected by pass",
		}, []string{"pass"}),

		sweeps: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "irpass_sweeps",
			Help:    "Sweeps over the pass list needed to reach a fixpoint",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21},
		}),
	}
}

func (m *Metrics) observeRewrite(pass string) {
	if m == nil {
		return
	}
	m.rewrites.WithLabelValues(pass).Inc()
}

func (m *Metrics) observeReject(pass string) {
	if m == nil {
		return
	}
	m.rejected.WithLabelValues(pass).Inc()
}

func (m *Metrics) observeSweeps(n int) {
	if m == nil {
		return
	}
	m.sweeps.Observe(float64(n))
}
