package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"regportal/internal/model"
)

func TestPipeline(t *testing.T) {
	m := NewPipeline(prometheus.NewRegistry())

	m.ObserveTransition(model.StatusPending, model.StatusApproved, "applied")
	m.ObserveTransition(model.StatusPending, model.StatusApproved, "applied")
	m.ObserveTransition(model.StatusPending, model.StatusRejected, "stale")
	m.IncrementBatchItem("generate", model.OutcomeFailure, "INVALID_TRANSITION")
	m.ObserveRender(time.Now().Add(-10 * time.Millisecond))

	assert.Equal(t, float64(2), testutil.ToFloat64(m.Transitions.WithLabelValues("pending", "approved", "applied")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Transitions.WithLabelValues("pending", "rejected", "stale")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.BatchItems.WithLabelValues("generate", "failure", "INVALID_TRANSITION")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RenderLatency))
}

func TestPipeline_NilIsSafe(t *testing.T) {
	var m *Pipeline
	assert.NotPanics(t, func() {
		m.ObserveTransition(model.StatusPending, model.StatusApproved, "applied")
		m.IncrementBatchItem("print", model.OutcomeSuccess, "")
		m.ObserveRender(time.Now())
	})
}
