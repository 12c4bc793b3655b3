package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "novachat_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "novachat_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	// Business metrics
	ChatTurns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "novachat_chat_turns_total",
			Help: "Total chat turns processed",
		},
		[]string{"kind"}, // "create" or "append"
	)

	ConversationsDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "novachat_conversations_deleted_total",
			Help: "Total conversations deleted",
		},
	)

	// Inference upstream metrics
	InferenceDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "novachat_inference_duration_seconds",
			Help:    "Full-stream inference call duration",
			Buckets: []float64{.25, .5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	InferenceFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "novachat_inference_failures_total",
			Help: "Total failed inference calls",
		},
	)

	// Rate limit metrics
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "novachat_rate_limit_hits_total",
			Help: "Total rate limit hits",
		},
		[]string{"endpoint"},
	)
)
