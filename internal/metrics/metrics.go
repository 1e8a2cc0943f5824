package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RefreshRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "netbench_refresh_runs_total",
		Help: "Total number of dataset refreshes, labelled by outcome (ok, fallback, rejected).",
	}, []string{"status"})

	RefreshDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "netbench_refresh_duration_seconds",
		Help:    "Time spent fetching and normalizing a dataset.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	})

	RecordsLoaded = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "netbench_records_loaded",
		Help: "Number of canonical records in the current dataset.",
	})

	SourceFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "netbench_source_fetches_total",
		Help: "Total number of upstream fetches, labelled by source kind and status.",
	}, []string{"kind", "status"})

	SourceCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "netbench_source_cache_hits_total",
		Help: "Total number of fetches answered from the source cache.",
	})

	RecordsNormalized = promauto.NewCounter(prometheus.CounterOpts{
		Name: "netbench_records_normalized_total",
		Help: "Total number of raw records normalized.",
	})

	IngestQueueUtilization = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "netbench_ingest_queue_utilization_ratio",
		Help: "Current normalization queue utilization (0–1).",
	})

	SnapshotDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "netbench_snapshot_duration_ms",
		Help:    "Time to recompute a dashboard snapshot in milliseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "netbench_http_requests_total",
		Help: "Total number of HTTP requests, labelled by route pattern and status code.",
	}, []string{"route", "code"})
)
