// Package metrics собирает метрики конвейера съёмки для Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Результаты съёмки
const (
	ResultWithHeatmap = "with_heatmap"
	ResultImageOnly   = "image_only"
	ResultFailed      = "failed"
)

// Metrics коллекторы конвейера. Методы безопасны для nil.
type Metrics struct {
	registry          *prometheus.Registry
	captures          *prometheus.CounterVec
	inferenceFailures prometheus.Counter
	inferenceDuration prometheus.Histogram
	readiness         *prometheus.GaugeVec
}

// New создаёт и регистрирует коллекторы в собственном реестре.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		captures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "artifact_sifter",
			Name:      "captures_total",
			Help:      "Captures by result.",
		}, []string{"result"}),
		inferenceFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "artifact_sifter",
			Name:      "inference_failures_total",
			Help:      "Inference attempts that ended without a heatmap.",
		}),
		inferenceDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "artifact_sifter",
			Name:      "inference_duration_seconds",
			Help:      "Time from preprocessing to composited heatmap.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		readiness: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "artifact_sifter",
			Name:      "readiness",
			Help:      "1 for the current orientation readiness state.",
		}, []string{"state"}),
	}

	m.registry.MustRegister(m.captures, m.inferenceFailures, m.inferenceDuration, m.readiness)
	return m
}

// ObserveCapture учитывает завершённую съёмку.
func (m *Metrics) ObserveCapture(result string) {
	if m == nil {
		return
	}
	m.captures.WithLabelValues(result).Inc()
}

// ObserveInference учитывает попытку инференса.
func (m *Metrics) ObserveInference(d time.Duration, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.inferenceFailures.Inc()
		return
	}
	m.inferenceDuration.Observe(d.Seconds())
}

// SetReadiness отмечает текущее состояние готовности.
func (m *Metrics) SetReadiness(state string, all []string) {
	if m == nil {
		return
	}
	for _, s := range all {
		v := 0.0
		if s == state {
			v = 1
		}
		m.readiness.WithLabelValues(s).Set(v)
	}
}

// Registry возвращает реестр (для тестов и экспорта).
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler HTTP-обработчик /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
