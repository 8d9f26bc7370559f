package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()
	m.ObservePrediction("High", "create", 0.1)
	m.ObservePrediction("High", "create", 0.1)
	m.ObservePrediction("Low", "update", 0.7)
	m.IncPredictionFailure("create")
	m.IncLifecycle("delete")
	m.ObserveAPI("GET", "/api/students/:id", 200, 15*time.Millisecond)

	assert.InDelta(t, 2, testutil.ToFloat64(m.predictions.WithLabelValues("High", "create")), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(m.predictions.WithLabelValues("Low", "update")), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(m.predictionFailures.WithLabelValues("create")), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(m.lifecycle.WithLabelValues("delete")), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(m.apiRequests.WithLabelValues("GET", "/api/students/:id", "200")), 1e-9)

	m.ApiInflightInc()
	m.ApiInflightInc()
	m.ApiInflightDec()
	assert.InDelta(t, 1, testutil.ToFloat64(m.apiInflight), 1e-9)
}

func TestMetricsHandlerExposesSeries(t *testing.T) {
	m := NewMetrics()
	m.IncSSEEvent("PredictionCreated")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `studentpulse_sse_events_total{event="PredictionCreated"} 1`))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObservePrediction("High", "create", 0.1)
	m.IncPredictionFailure("create")
	m.ObserveAPI("GET", "/", 200, time.Millisecond)
	m.RegisterDB(nil, "x")
	assert.Nil(t, m.Registry())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
