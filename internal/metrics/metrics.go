package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheReads counts repository reads answered from memory (hit) or sent to a source (miss).
	CacheReads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskstore_cache_reads_total",
			Help: "Task repository reads by cache result",
		},
		[]string{"kind", "result"},
	)

	// SourceCalls counts calls issued to a data source.
	SourceCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskstore_source_calls_total",
			Help: "Calls issued to task data sources",
		},
		[]string{"source", "operation"},
	)

	// SourceErrors counts failed data source calls.
	SourceErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskstore_source_errors_total",
			Help: "Failed calls to task data sources",
		},
		[]string{"source", "operation"},
	)

	// SourceDuration measures data source latency.
	SourceDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "taskstore_source_duration_seconds",
			Help:    "Task data source call duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
		},
		[]string{"source", "operation"},
	)

	// CachedTasks tracks the number of tasks held in memory.
	CachedTasks = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "taskstore_cached_tasks",
			Help: "Tasks currently held by the repository cache",
		},
	)

	// BufferedWrites counts remote writes parked in the outbox.
	BufferedWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskstore_buffered_writes_total",
			Help: "Remote writes stored for later replay",
		},
		[]string{"operation"},
	)

	// ReplayedWrites counts outbox replays by outcome.
	ReplayedWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskstore_replayed_writes_total",
			Help: "Outbox replays by result",
		},
		[]string{"result"},
	)
)
