package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultOK      = "ok"
	resultFailed  = "failed"
	resultSkipped = "skipped"
)

var (
	storeLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rsywx_store_loads_total",
			Help: "Store field loads by outcome (ok, failed, skipped by the loaded guard)",
		},
		[]string{"field", "result"},
	)

	batchFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rsywx_store_batch_fallbacks_total",
			Help: "Times a batch load failed and the store fell back to individual loads",
		},
		[]string{"domain"},
	)
)
