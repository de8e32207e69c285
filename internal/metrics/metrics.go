// Package metrics defines the Prometheus collectors exported by the daemon.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Session Registry Metrics
var (
	// SessionsActive tracks sessions currently tracked by the registry, by kind
	SessionsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "idlekit_sessions_active",
			Help: "Sessions currently tracked by the registry by kind (idle/farming)",
		},
		[]string{"kind"},
	)

	// SessionStarts tracks start calls by outcome
	SessionStarts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "idlekit_session_starts_total",
			Help: "Session start calls by result (started/already_running/failed/refused)",
		},
		[]string{"result"},
	)

	// SessionStopFailures tracks stop commands the host rejected
	SessionStopFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "idlekit_session_stop_failures_total",
			Help: "Stop commands rejected by the host",
		},
	)

	// SessionsReconciled tracks sessions found terminated outside idlekit
	SessionsReconciled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "idlekit_sessions_reconciled_total",
			Help: "Sessions cleared because the host no longer reported them",
		},
	)

	// BudgetExpirations tracks sessions stopped by their idle budget
	BudgetExpirations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "idlekit_session_budget_expirations_total",
			Help: "Sessions stopped because their idle budget ran out",
		},
	)
)

// Launcher Metrics
var (
	// LaunchAttempts tracks batch launch attempts by component
	LaunchAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "idlekit_launch_attempts_total",
			Help: "Batch launch attempts by component (auto_idle/farming)",
		},
		[]string{"component"},
	)

	// LaunchExhausted tracks titles dropped after the retry budget ran out
	LaunchExhausted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "idlekit_launch_exhausted_titles_total",
			Help: "Titles dropped after exhausting launch attempts by component",
		},
		[]string{"component"},
	)
)

// Unlock Scheduler Metrics
var (
	// Unlocks tracks unlock actions by result
	Unlocks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "idlekit_unlocks_total",
			Help: "Achievement unlock actions by result (success/failed)",
		},
		[]string{"result"},
	)

	// UnlockPhase tracks the current phase (1 for the active phase, 0 otherwise)
	UnlockPhase = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "idlekit_unlock_phase",
			Help: "Current unlock scheduler phase (1 = active)",
		},
		[]string{"phase"},
	)
)

// Farming Metrics
var (
	// FarmingRuns tracks farming starts by outcome
	FarmingRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "idlekit_farming_runs_total",
			Help: "Farming starts by result (started/credentials_expired/no_titles/failed)",
		},
		[]string{"result"},
	)

	// FarmingTitles tracks titles still being farmed
	FarmingTitles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "idlekit_farming_titles",
			Help: "Titles still being farmed",
		},
	)
)

// Scheduler Metrics
var (
	// TaskRuns tracks scheduled task runs by task and status
	TaskRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "idlekit_task_runs_total",
			Help: "Scheduled task runs by task and status (success/error)",
		},
		[]string{"task", "status"},
	)

	// TaskDuration tracks scheduled task duration in seconds
	TaskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "idlekit_task_duration_seconds",
			Help:    "Scheduled task duration in seconds",
			Buckets: []float64{.1, .5, 1, 5, 15, 30, 60, 300},
		},
		[]string{"task"},
	)
)

// SetUnlockPhase marks phase as the only active phase.
func SetUnlockPhase(phase string) {
	UnlockPhase.Reset()
	UnlockPhase.WithLabelValues(phase).Set(1)
}
