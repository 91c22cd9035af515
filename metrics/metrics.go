package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// PipelineStageDuration is per-stage latency of the classification chain.
	PipelineStageDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "lmk",
		Subsystem: "pipeline",
		Name:      "stage_duration_seconds",
		Help:      "Latency of each classification pipeline stage, labeled by stage.",
		// Completion calls are slow; keep buckets coarse.
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 60, 120},
	}, []string{"stage"})

	// PipelineStageErrors counts failed completion-service calls by stage.
	PipelineStageErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lmk",
		Subsystem: "pipeline",
		Name:      "stage_errors_total",
		Help:      "Total number of failed classification pipeline stage calls, labeled by stage.",
	}, []string{"stage"})

	// PostsCreated counts persisted posts by urgency tier. Green submissions
	// are counted under the discarded label instead.
	PostsCreated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lmk",
		Subsystem: "posts",
		Name:      "created_total",
		Help:      "Total number of classified post submissions, labeled by outcome urgency.",
	}, []string{"urgency"})

	// PostsDiscarded counts submissions dropped because no threat was detected.
	PostsDiscarded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "lmk",
		Subsystem: "posts",
		Name:      "discarded_total",
		Help:      "Total number of submissions classified Green and not persisted.",
	})

	// ReportsGenerated counts hazard report generations.
	ReportsGenerated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "lmk",
		Subsystem: "reports",
		Name:      "generated_total",
		Help:      "Total number of hazard reports generated.",
	})
)

// Register registers service metrics with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			PipelineStageDuration,
			PipelineStageErrors,
			PostsCreated,
			PostsDiscarded,
			ReportsGenerated,
		)
	})
}
