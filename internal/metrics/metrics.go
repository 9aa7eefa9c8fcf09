package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	IterationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swingbot_iterations_total",
			Help: "Polling iterations by outcome",
		},
		[]string{"status"},
	)

	IterationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "swingbot_iteration_duration_seconds",
			Help:    "Wall time of one fetch-signal-order pass",
			Buckets: prometheus.DefBuckets,
		},
	)

	FailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swingbot_failures_total",
			Help: "Failed iterations by error class",
		},
		[]string{"class"},
	)

	OrdersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swingbot_orders_total",
			Help: "Order submissions by side and outcome",
		},
		[]string{"side", "outcome"},
	)

	SignalsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swingbot_signals_total",
			Help: "Crossover signals seen, by side",
		},
		[]string{"side"},
	)

	LastIterationTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "swingbot_last_iteration_timestamp_seconds",
			Help: "Unix time the last iteration finished",
		},
	)
)
