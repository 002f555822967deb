// Package metrics holds the registration pipeline's Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"regportal/internal/model"
)

// Pipeline provides observability for status transitions and credential issuance.
// A nil *Pipeline records nothing.
type Pipeline struct {
	// Attempted transitions by from, to and result (applied, invalid, guard_refused, stale, error)
	Transitions *prometheus.CounterVec

	// Batch item outcomes by mode (generate, print), outcome and error code
	BatchItems *prometheus.CounterVec

	// Time to rasterize and compose one credential
	RenderLatency prometheus.Histogram
}

// NewPipeline registers the pipeline collectors on reg.
func NewPipeline(reg prometheus.Registerer) *Pipeline {
	f := promauto.With(reg)
	return &Pipeline{
		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "regportal_status_transitions_total",
			Help: "Attempted registration status transitions by result",
		}, []string{"from", "to", "result"}),

		BatchItems: f.NewCounterVec(prometheus.CounterOpts{
			Name: "regportal_batch_items_total",
			Help: "Credential batch items by mode, outcome and error code",
		}, []string{"mode", "outcome", "code"}),

		RenderLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "regportal_credential_render_duration_seconds",
			Help:    "Duration of rendering one credential",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
	}
}

// ObserveTransition implements registration.TransitionObserver.
func (m *Pipeline) ObserveTransition(from, to model.Status, result string) {
	if m != nil {
		m.Transitions.WithLabelValues(string(from), string(to), result).Inc()
	}
}

// IncrementBatchItem records one batch item. code is empty for successes.
func (m *Pipeline) IncrementBatchItem(mode string, outcome model.Outcome, code string) {
	if m != nil {
		m.BatchItems.WithLabelValues(mode, string(outcome), code).Inc()
	}
}

// ObserveRender records the render time since start.
func (m *Pipeline) ObserveRender(start time.Time) {
	if m != nil {
		m.RenderLatency.Observe(time.Since(start).Seconds())
	}
}
