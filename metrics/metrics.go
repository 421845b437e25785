package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// AnalysesTotal counts pipeline runs by modality and outcome kind.
	AnalysesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ketolog",
		Subsystem: "analyzer",
		Name:      "analyses_total",
		Help:      "Total number of analysis pipeline runs, labeled by modality and result.",
	}, []string{"modality", "result"})

	// AnalysisDurationSeconds is end-to-end time per pipeline run.
	AnalysisDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ketolog",
		Subsystem: "analyzer",
		Name:      "analysis_duration_seconds",
		Help:      "End-to-end time of one analysis pipeline run.",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 90, 120},
	}, []string{"modality"})

	// VisionFallbackTotal counts switches to an alternate vision model.
	VisionFallbackTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ketolog",
		Subsystem: "analyzer",
		Name:      "vision_fallback_total",
		Help:      "Total number of times the photo pipeline moved on to another vision model or attempt.",
	})

	// ImageInputBytes observes raw upload sizes before normalization.
	ImageInputBytes = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "ketolog",
		Subsystem: "image",
		Name:      "input_bytes",
		Help:      "Raw image payload size before normalization.",
		Buckets:   prometheus.ExponentialBuckets(32*1024, 4, 8),
	})

	// ImageOutputBytes observes normalized payload sizes.
	ImageOutputBytes = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "ketolog",
		Subsystem: "image",
		Name:      "output_bytes",
		Help:      "Encoded image payload size after normalization.",
		Buckets:   prometheus.ExponentialBuckets(16*1024, 2, 8),
	})

	// QualityFloorTotal counts normalizations that hit the quality floor
	// without meeting the byte budget.
	QualityFloorTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ketolog",
		Subsystem: "image",
		Name:      "quality_floor_total",
		Help:      "Total number of image normalizations that reached the JPEG quality floor over budget.",
	})
)

// Register registers all collectors with the default registry. Safe to call
// more than once.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			AnalysesTotal,
			AnalysisDurationSeconds,
			VisionFallbackTotal,
			ImageInputBytes,
			ImageOutputBytes,
			QualityFloorTotal,
		)
	})
}
