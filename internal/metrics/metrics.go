package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SourceFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aquiferpulse_source_fetches_total",
			Help: "Total upstream source fetches",
		},
		[]string{"source", "status"},
	)

	SourceFetchLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aquiferpulse_source_fetch_latency_seconds",
			Help:    "Upstream source fetch latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	SamplesIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aquiferpulse_samples_ingested_total",
			Help: "Monthly samples successfully stored",
		},
		[]string{"source"},
	)

	SamplesRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aquiferpulse_samples_rejected_total",
			Help: "Monthly samples rejected by validation",
		},
		[]string{"source", "reason"},
	)

	ComputeRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aquiferpulse_compute_runs_total",
			Help: "Index recomputation runs",
		},
		[]string{"status"},
	)

	BasinsClassified = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "aquiferpulse_basins_classified",
			Help: "Basins per class for the latest covered month",
		},
		[]string{"class"},
	)

	LatestCoveredMonth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "aquiferpulse_latest_covered_month_seconds",
			Help: "Unix time of the first day of the latest month with ASI coverage",
		},
	)
)
