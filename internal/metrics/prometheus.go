package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// InterviewsSubmitted counts uploads accepted by the ingestion gateway.
	InterviewsSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "intervue_interviews_submitted_total",
			Help: "Total number of interview uploads accepted",
		},
	)

	// InterviewsProcessed counts terminal outcomes by status.
	InterviewsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intervue_interviews_processed_total",
			Help: "Total number of interviews that reached a terminal state",
		},
		[]string{"status"},
	)

	// StageDuration tracks how long each pipeline stage takes.
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "intervue_stage_duration_seconds",
			Help:    "Duration of interview pipeline stages in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 13), // 50ms to ~7min
		},
		[]string{"stage"},
	)

	// WorkersActive tracks the number of workers currently running a job.
	WorkersActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "intervue_workers_active",
			Help: "Number of worker goroutines currently processing an interview",
		},
	)

	// QueueRejections counts uploads refused because the local queue was full.
	QueueRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "intervue_queue_rejections_total",
			Help: "Total number of interviews rejected by admission control",
		},
	)

	// StoreDivergence counts terminal writes that reached the cache but not the durable store.
	StoreDivergence = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "intervue_store_divergence_total",
			Help: "Total number of failed durable writes leaving the cache ahead of the store",
		},
	)

	// PreprocessPath counts which audio cleaning path produced each file.
	PreprocessPath = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intervue_preprocess_path_total",
			Help: "Total number of cleaned audio files by preprocessing path",
		},
		[]string{"path"},
	)
)
