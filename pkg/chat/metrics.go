package chat

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	activeConnectionsMetric = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "nyaysahay_chat_active_connections",
		Help: "Number of live websocket connections",
	})

	messagesMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nyaysahay_chat_messages_total",
		Help: "Messages persisted to the conversation log, by role",
	}, []string{"role"})

	pipelineDurationMetric = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nyaysahay_chat_pipeline_duration_seconds",
		Help:    "End to end duration of the per-message pipeline, by outcome",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 45, 60},
	}, []string{"outcome"})

	upstreamFailuresMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nyaysahay_chat_upstream_failures_total",
		Help: "Failed calls to external collaborators, by collaborator",
	}, []string{"collaborator"})
)
