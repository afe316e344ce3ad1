// Package metrics provides Prometheus instrumentation for shardfeed
// pipelines.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all metric instances for shardfeed components.
type Registry struct {
	// Pipeline Metrics
	ExamplesProcessed *prometheus.CounterVec
	PadExamples       *prometheus.CounterVec
	BatchesEmitted    *prometheus.CounterVec
	TransformErrors   *prometheus.CounterVec
	BuildDuration     *prometheus.HistogramVec
	MapWorkersActive  *prometheus.GaugeVec

	// Metadata Cache Metrics
	MetadataCacheHits   *prometheus.CounterVec
	MetadataCacheMisses *prometheus.CounterVec
}

// DefaultRegistry is the default metrics registry used by shardfeed
// components.
var DefaultRegistry *Registry

func init() {
	DefaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
}

// NewRegistry creates a new metrics registry with the given Prometheus
// registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)

	return &Registry{
		ExamplesProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "shardfeed",
				Subsystem: "pipeline",
				Name:      "examples_processed_total",
				Help:      "Total number of examples run through the transform chain",
			},
			[]string{"variant", "dataset"},
		),

		PadExamples: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "shardfeed",
				Subsystem: "pipeline",
				Name:      "pad_examples_total",
				Help:      "Total number of synthetic padding examples emitted",
			},
			[]string{"variant", "dataset"},
		),

		BatchesEmitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "shardfeed",
				Subsystem: "pipeline",
				Name:      "batches_emitted_total",
				Help:      "Total number of batches delivered to consumers",
			},
			[]string{"variant", "dataset"},
		),

		TransformErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "shardfeed",
				Subsystem: "pipeline",
				Name:      "transform_errors_total",
				Help:      "Total number of transform failures during iteration",
			},
			[]string{"variant", "dataset"},
		),

		BuildDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "shardfeed",
				Subsystem: "pipeline",
				Name:      "build_duration_seconds",
				Help:      "Time spent constructing pipelines",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"variant"},
		),

		MapWorkersActive: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "shardfeed",
				Subsystem: "pipeline",
				Name:      "map_workers_active",
				Help:      "Number of parallel transform workers currently running",
			},
			[]string{"pipeline"},
		),

		MetadataCacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "shardfeed",
				Subsystem: "metadata",
				Name:      "cache_hits_total",
				Help:      "Total number of split-info cache hits",
			},
			[]string{"dataset"},
		),

		MetadataCacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "shardfeed",
				Subsystem: "metadata",
				Name:      "cache_misses_total",
				Help:      "Total number of split-info cache misses",
			},
			[]string{"dataset"},
		),
	}
}
