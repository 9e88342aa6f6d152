// File: internal/infra/metrics/scraping.go
package metrics

import (
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	sessionsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraping_sessions_created_total",
			Help: "Scraping sessions created, by session type.",
		},
		[]string{"type"},
	)

	sessionTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraping_session_transitions_total",
			Help: "Session status transitions, by resulting status.",
		},
		[]string{"status"},
	)

	ingestDeliveries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraping_ingest_deliveries_total",
			Help: "Result payload deliveries accepted from the workflow engine.",
		},
	)

	ingestedVideos = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraping_ingested_videos_total",
			Help: "Videos ingested across all deliveries (duplicates included).",
		},
	)

	pollAttempts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraping_poll_attempts_total",
			Help: "Poll attempts issued across all watched sessions.",
		},
	)

	pollTimeouts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraping_poll_timeouts_total",
			Help: "Sessions failed after exhausting the poll attempt bound.",
		},
	)

	engineTriggerLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "engine_trigger_latency_ms",
			Help:    "Workflow engine trigger call latency in milliseconds.",
			Buckets: []float64{10, 25, 50, 100, 200, 400, 800, 1600, 3000, 5000},
		},
		[]string{"success"},
	)

	engineErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_errors_total",
			Help: "Workflow engine call failures, by call kind (trigger/status/proxy).",
		},
		[]string{"kind"},
	)
)

func init() {
	register(
		sessionsCreated, sessionTransitions,
		ingestDeliveries, ingestedVideos,
		pollAttempts, pollTimeouts,
		engineTriggerLatencyMs, engineErrors,
	)
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func IncSessionCreated(sessionType string) {
	sessionsCreated.WithLabelValues(norm(sessionType)).Inc()
}

func IncTransition(status string) {
	sessionTransitions.WithLabelValues(norm(status)).Inc()
}

func ObserveIngest(videos int) {
	ingestDeliveries.Inc()
	ingestedVideos.Add(float64(videos))
}

func IncPollAttempt() { pollAttempts.Inc() }

func IncPollTimeout() { pollTimeouts.Inc() }

func ObserveTriggerLatency(ms int64, success bool) {
	engineTriggerLatencyMs.WithLabelValues(strconv.FormatBool(success)).Observe(float64(ms))
}

func IncEngineError(kind string) {
	engineErrors.WithLabelValues(norm(kind)).Inc()
}
