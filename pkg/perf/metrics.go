package perf

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var timerDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "rsywx_timer_duration_seconds",
		Help:    "Duration of named timers by category and outcome",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	},
	[]string{"category", "status"},
)
