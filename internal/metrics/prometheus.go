// Package metrics реализует экспорт метрик в Prometheus
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"zscore-chart/internal/models"
)

// Prometheus метрики
var (
	// RequestsTotal общее количество запросов
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zchart_requests_total",
			Help: "Total number of requests processed",
		},
		[]string{"endpoint", "method", "status"},
	)

	// RequestDuration длительность запросов
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "zchart_request_duration_seconds",
			Help:    "Request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"endpoint", "method"},
	)

	// AnalysesTotal количество выполненных анализов
	AnalysesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "zchart_analyses_total",
			Help: "Total number of dataset analyses",
		},
	)

	// SegmentsEmitted количество построенных сегментов по полю и классу
	SegmentsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zchart_segments_emitted_total",
			Help: "Total number of segments emitted",
		},
		[]string{"field", "classification"},
	)

	// AlertPoints количество alert-точек в последнем анализе
	AlertPoints = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "zchart_alert_points",
			Help: "Number of alert points in the last analysis",
		},
		[]string{"field"},
	)

	// MaxAbsZScore максимальный |z| в последнем анализе
	MaxAbsZScore = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "zchart_max_abs_zscore",
			Help: "Maximum absolute z-score in the last analysis",
		},
		[]string{"field"},
	)

	// RenderLatency время отрисовки графика
	RenderLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "zchart_render_latency_seconds",
			Help:    "Chart render latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5},
		},
		[]string{"format"},
	)

	// AnalysisLatency время выполнения анализа
	AnalysisLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "zchart_analysis_latency_seconds",
			Help:    "Analysis computation latency in seconds",
			Buckets: []float64{.00001, .0001, .0005, .001, .005, .01},
		},
	)

	// CacheHits попадания в кэш
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "zchart_cache_hits_total",
			Help: "Total number of cache hits",
		},
	)

	// CacheMisses промахи кэша
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "zchart_cache_misses_total",
			Help: "Total number of cache misses",
		},
	)
)

// ObserveAnalysis обновляет метрики по результату анализа
func ObserveAnalysis(analysis models.Analysis) {
	AnalysesTotal.Inc()
	for _, fa := range analysis.Fields {
		field := string(fa.Field)
		for _, s := range fa.Segments {
			SegmentsEmitted.WithLabelValues(field, string(s.Classification)).Inc()
		}
		AlertPoints.WithLabelValues(field).Set(float64(fa.AlertPoints()))

		maxAbs := 0.0
		for _, z := range fa.ZScores {
			if z < 0 {
				z = -z
			}
			if z > maxAbs {
				maxAbs = z
			}
		}
		MaxAbsZScore.WithLabelValues(field).Set(maxAbs)
	}
}
