package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingestion metrics
	IngestedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "espdash_measurements_ingested_total",
		Help: "Total number of measurements accepted and appended to the store",
	})
	RejectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "espdash_requests_rejected_total",
		Help: "Total number of ingestion requests rejected as client errors",
	})
	EmptyReadingsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "espdash_empty_readings_total",
		Help: "Total number of ingested payloads with no derivable numeric field",
	})

	// Store metrics
	StoreRecords = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "espdash_store_records",
		Help: "Number of records currently held in the measurement store",
	})
	PersistFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "espdash_persist_failures_total",
		Help: "Total number of failed attempts to persist the store",
	})
)
