package services

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	challengeJoins = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "challenge_joins_total",
			Help: "Successful challenge joins",
		},
	)
	challengeCompletions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "challenge_completions_total",
			Help: "Challenge completions by path",
		},
		[]string{"path"},
	)
	xpAwardedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "challenge_xp_awarded_total",
			Help: "Total XP granted by the reward engine",
		},
	)
	hookFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "challenge_hook_failures_total",
			Help: "Post-commit hooks that failed or panicked",
		},
		[]string{"hook"},
	)
	listenerPanics = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "challenge_listener_panics_total",
			Help: "Event listeners recovered from a panic during delivery",
		},
	)
)

// InitMetrics registers the engine metrics. Call this from main.go, next to
// the middleware registration.
func InitMetrics() {
	prometheus.MustRegister(challengeJoins)
	prometheus.MustRegister(challengeCompletions)
	prometheus.MustRegister(xpAwardedTotal)
	prometheus.MustRegister(hookFailures)
	prometheus.MustRegister(listenerPanics)
}
