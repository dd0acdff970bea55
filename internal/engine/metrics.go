package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	outcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mentorlink",
		Subsystem: "engine",
		Name:      "outcomes_total",
		Help:      "Processed questions by outcome.",
	}, []string{"status"})

	gateDecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mentorlink",
		Subsystem: "engine",
		Name:      "gate_decisions_total",
		Help:      "Quality gate decisions by matching path and rule.",
	}, []string{"path", "gate"})

	semanticCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mentorlink",
		Subsystem: "engine",
		Name:      "semantic_cache_total",
		Help:      "Instant-match result cache lookups.",
	}, []string{"result"})

	assignRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "mentorlink",
		Subsystem: "engine",
		Name:      "assign_retries_total",
		Help:      "Assignments retried after losing the mentor load race.",
	})

	softFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mentorlink",
		Subsystem: "engine",
		Name:      "soft_failures_total",
		Help:      "Non-fatal failures by stage.",
	}, []string{"stage"})

	processSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "mentorlink",
		Subsystem: "engine",
		Name:      "process_question_seconds",
		Help:      "Latency of ProcessQuestion.",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})
)
