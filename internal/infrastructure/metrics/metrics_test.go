package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()
	m.ObserveCapture(ResultWithHeatmap)
	m.ObserveCapture(ResultImageOnly)
	m.ObserveCapture(ResultImageOnly)
	m.ObserveInference(120*time.Millisecond, nil)
	m.ObserveInference(0, errors.New("boom"))

	require.Equal(t, 1.0, testutil.ToFloat64(m.captures.WithLabelValues(ResultWithHeatmap)))
	require.Equal(t, 2.0, testutil.ToFloat64(m.captures.WithLabelValues(ResultImageOnly)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.inferenceFailures))
	require.Equal(t, 1, testutil.CollectAndCount(m.inferenceDuration))
}

func TestMetrics_Readiness(t *testing.T) {
	m := New()
	m.SetReadiness("aligned", []string{"aligned", "misaligned"})
	require.Equal(t, 1.0, testutil.ToFloat64(m.readiness.WithLabelValues("aligned")))
	require.Equal(t, 0.0, testutil.ToFloat64(m.readiness.WithLabelValues("misaligned")))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveCapture(ResultFailed)
	m.ObserveInference(time.Second, nil)
	m.SetReadiness("aligned", nil)
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveCapture(ResultWithHeatmap)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), "artifact_sifter_captures_total"))
}
