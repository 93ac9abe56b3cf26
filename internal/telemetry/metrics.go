package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emulator_requests_total",
			Help: "Completed chat completions by provider, model, and status",
		},
		[]string{"provider", "model", "status"},
	)

	completionTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "emulator_completion_tokens",
			Help:    "Total tokens accounted per completion",
			Buckets: []float64{10, 50, 100, 250, 500, 1000, 2000, 5000, 10000},
		},
		[]string{"provider", "model"},
	)

	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emulator_errors_total",
			Help: "Request failures by endpoint",
		},
		[]string{"endpoint"},
	)

	// RequestDuration is observed by the HTTP logging middleware.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "emulator_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"path"},
	)
)
