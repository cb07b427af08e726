// Package observability exposes Prometheus metrics for the archive server.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// sessionsStarted counts sessions by how their puzzles were sourced.
	sessionsStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "time_agent_sessions_started_total",
		Help: "Sessions started by mode",
	}, []string{"mode"})

	sessionsFinished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "time_agent_sessions_finished_total",
		Help: "Sessions that reached the final report",
	})

	// answers counts evaluated submissions by result and puzzle type.
	answers = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "time_agent_answers_total",
		Help: "Evaluated submissions by result and puzzle type",
	}, []string{"result", "type"})

	forcedReveals = promauto.NewCounter(prometheus.CounterOpts{
		Name: "time_agent_forced_reveals_total",
		Help: "Rooms unlocked by the failure threshold",
	})

	generationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "time_agent_generation_duration_seconds",
		Help:    "Remote puzzle generation latency in seconds",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 8), // 0.5s to ~64s
	})

	generationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "time_agent_generation_failures_total",
		Help: "Failed generation calls by reason",
	}, []string{"reason"})

	archiveEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "time_agent_archive_evictions_total",
		Help: "Topics evicted from the archive by the topic cap",
	})

	liveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "time_agent_live_sessions",
		Help: "Sessions currently held in memory",
	})
)

// SessionStarted records a new session for mode ("local" or "ai").
func SessionStarted(mode string) { sessionsStarted.WithLabelValues(mode).Inc() }

// SessionFinished records a completed session.
func SessionFinished() { sessionsFinished.Inc() }

// Answer records an evaluated submission.
func Answer(correct bool, puzzleType string) {
	result := "incorrect"
	if correct {
		result = "correct"
	}
	answers.WithLabelValues(result, puzzleType).Inc()
}

// ForcedReveal records a room unlocked after repeated misses.
func ForcedReveal() { forcedReveals.Inc() }

// GenerationObserved records the latency of a generation call.
func GenerationObserved(d time.Duration) { generationDuration.Observe(d.Seconds()) }

// GenerationFailed records a failed generation call.
func GenerationFailed(reason string) { generationFailures.WithLabelValues(reason).Inc() }

// ArchiveEvicted records topics dropped by the topic cap.
func ArchiveEvicted(n int) { archiveEvictions.Add(float64(n)) }

// SetLiveSessions reports the number of in-memory sessions.
func SetLiveSessions(n int) { liveSessions.Set(float64(n)) }

// Handler serves the default registry.
func Handler() http.Handler { return promhttp.Handler() }
