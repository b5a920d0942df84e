package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Traffic: запуски пайплайна (outcome: ok | degraded)
	RunsTotal *prometheus.CounterVec

	// Latency: длительность похода в бэкенд телеметрии
	FetchDuration prometheus.Histogram

	// Errors: классификация отказов бэкенда
	FetchErrors *prometheus.CounterVec

	// Saturation: состояние Circuit Breaker (0 - ок, 1 - выбило)
	BreakerOpen prometheus.Gauge

	// Delivery: отправки писем (outcome: ok | error)
	MailSends *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	// Null Object Pattern - Если рег не передан, используем локальный, который никуда не подключен
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		RunsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "digest_pipeline_runs_total",
			Help: "Total number of digest pipeline runs by outcome.",
		}, []string{"outcome"}),

		FetchDuration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "digest_telemetry_fetch_duration_seconds",
			Help:    "Histogram of telemetry backend query latencies.",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}),

		FetchErrors: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "digest_telemetry_failures_total",
			Help: "Total number of telemetry fetch failures by reason.",
		}, []string{"reason"}), // типы: backend, other

		BreakerOpen: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "digest_telemetry_breaker_open",
			Help: "Current state of the telemetry circuit breaker (0=closed, 1=open).",
		}),

		MailSends: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "digest_mail_sends_total",
			Help: "Total number of mail dispatch attempts by outcome.",
		}, []string{"outcome"}),
	}
}
