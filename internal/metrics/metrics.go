// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "threadwise_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "threadwise_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.01, .05, .1, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"method", "route"},
	)

	// Generation metrics
	GenerationRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "threadwise_generation_requests_total",
			Help: "Generation backend calls by feature and outcome",
		},
		[]string{"backend", "feature", "outcome"}, // outcome: "ok" or "error"
	)

	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "threadwise_generation_duration_seconds",
			Help:    "Generation backend call latency",
			Buckets: []float64{.25, .5, 1, 2.5, 5, 10, 20, 30, 60},
		},
		[]string{"backend", "feature"},
	)

	// BreakerState is 0 closed, 1 half-open, 2 open.
	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "threadwise_generation_breaker_state",
			Help: "Circuit breaker state of the generation backend",
		},
		[]string{"backend"},
	)

	// Fallbacks counts deterministic substitutes returned instead of model output.
	Fallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "threadwise_fallbacks_total",
			Help: "Fallback results by feature and reason",
		},
		[]string{"feature", "reason"}, // reason: "backend" or "malformed"
	)

	SummariesSaved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "threadwise_summaries_saved_total",
			Help: "Summary artifacts written",
		},
	)

	MessagesIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "threadwise_messages_ingested_total",
			Help: "Chat messages stored from front-ends",
		},
		[]string{"source", "scope_type"},
	)
)
