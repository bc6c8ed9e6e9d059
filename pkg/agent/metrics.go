package agent

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	dispatchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "agent",
			Name:      "dispatch_total",
			Help:      "Dispatched turns by strategy and outcome",
		},
		[]string{"strategy", "outcome"},
	)

	dispatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "agent",
			Name:      "dispatch_duration_seconds",
			Help:      "Time from turn start to the end of its stream",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80},
		},
		[]string{"strategy"},
	)

	toolResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "agent",
			Name:      "tool_resolutions_total",
			Help:      "Tool resolution outcomes by catalog",
		},
		[]string{"catalog", "kind"},
	)

	reactIterations = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "agent",
			Name:      "react_iterations",
			Help:      "Reasoning steps taken per structured reasoning turn",
			Buckets:   []float64{1, 2, 3, 4, 5, 8, 10},
		},
	)
)
