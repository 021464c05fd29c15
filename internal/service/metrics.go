package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	transitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "game_transitions_total",
			Help: "Total number of session transitions by kind and outcome.",
		},
		[]string{"kind", "outcome"}, // kind: opening/action; outcome: committed/failed/rejected
	)
	transitionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "game_transition_duration_seconds",
			Help:    "Duration of session transitions that reached the orchestrator.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
		[]string{"kind", "outcome"},
	)
	voiceDispatchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "game_voice_dispatch_total",
			Help: "Total number of detached voice synthesis dispatches by outcome.",
		},
		[]string{"outcome"}, // delivered/failed/skipped
	)
	activeSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "game_active_sessions",
			Help: "Number of sessions held in memory.",
		},
	)
)
