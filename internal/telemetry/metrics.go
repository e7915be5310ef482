package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Результаты попытки вызова этапа (label outcome).
const (
	OutcomeSuccess   = "success"
	OutcomeTransient = "transient"
	OutcomePermanent = "permanent"
	OutcomeMalformed = "malformed"
	OutcomeCancelled = "cancelled"
)

// Метрики регистрируются один раз на процесс в prometheus.DefaultRegisterer.
var (
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "polyglot_runs_total",
		Help: "Finished pipeline runs by final status",
	}, []string{"status"})

	runsSuperseded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polyglot_runs_superseded_total",
		Help: "Runs cancelled because a newer run was started",
	})

	activeRuns = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "polyglot_active_runs",
		Help: "Runs currently executing stages (including superseded runs still unwinding)",
	})

	stageAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "polyglot_stage_attempts_total",
		Help: "HTTP attempts per stage by outcome",
	}, []string{"stage", "outcome"})

	stageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "polyglot_stage_duration_seconds",
		Help:    "Stage latency including retries",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	}, []string{"stage", "status"})

	stageCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "polyglot_stage_cache_total",
		Help: "Stage response cache lookups by result",
	}, []string{"stage", "result"})

	apiRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "polyglot_api_http_requests_total",
		Help: "Total HTTP requests handled by polyglot-api",
	}, []string{"method", "status"})
)

// RecordRunStarted увеличивает число активных runs.
func RecordRunStarted() {
	activeRuns.Inc()
}

// RecordRunFinished фиксирует завершение run.
func RecordRunFinished(status string) {
	activeRuns.Dec()
	runsTotal.WithLabelValues(status).Inc()
}

// RecordRunSuperseded фиксирует вытеснение run новым.
func RecordRunSuperseded() {
	runsSuperseded.Inc()
}

// RecordStageAttempt фиксирует одну HTTP-попытку этапа.
func RecordStageAttempt(stage, outcome string) {
	stageAttempts.WithLabelValues(stage, outcome).Inc()
}

// RecordStageDuration фиксирует длительность этапа.
func RecordStageDuration(stage, status string, d time.Duration) {
	stageDuration.WithLabelValues(stage, status).Observe(d.Seconds())
}

// RecordCacheLookup фиксирует обращение к кэшу ("hit", "miss", "error").
func RecordCacheLookup(stage, result string) {
	stageCache.WithLabelValues(stage, result).Inc()
}

// RecordAPIRequest фиксирует HTTP-запрос к API.
func RecordAPIRequest(method string, status int) {
	apiRequests.WithLabelValues(method, statusClass(status)).Inc()
}

// statusClass сворачивает HTTP-код в класс ("2xx", "4xx", ...).
func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
