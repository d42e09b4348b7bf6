package metrics

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aretw0/abacus/pkg/domain"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHooksCount(t *testing.T) {
	m := New()
	hooks := m.Hooks()
	hooks.OnCalculation(context.Background(), &domain.CalculationEvent{Category: domain.OpTrigonometric})
	hooks.OnCalculation(context.Background(), &domain.CalculationEvent{Category: domain.OpTrigonometric})
	hooks.OnError(context.Background(), &domain.ErrorEvent{Kind: domain.MathError})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.calculations.WithLabelValues("trigonometric")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.calcErrors.WithLabelValues("math_error")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRequest("GET", "/", 200, time.Millisecond)
		m.RateLimited("global")
		m.HistoryDropped()
		m.SessionOpened()
		m.Hooks().OnCalculation(context.Background(), &domain.CalculationEvent{})
	})
}

func TestHandlerExposition(t *testing.T) {
	m := New()
	m.ObserveRequest("GET", "/health", 200, 5*time.Millisecond)
	m.HistoryDropped()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `abacus_http_requests_total{method="GET",route="/health",status="200"} 1`)
	assert.Contains(t, string(body), "abacus_history_dropped_total 1")
}
