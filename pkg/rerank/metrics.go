package rerank

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	rerankCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "agent",
			Name:      "rerank_calls_total",
			Help:      "Total cross-encoder rerank calls",
		},
		[]string{"provider", "status"},
	)

	rerankDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "agent",
			Name:      "rerank_duration_seconds",
			Help:      "Duration of cross-encoder rerank calls in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"provider"},
	)
)
