package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	recognitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digitread_recognitions_total",
			Help: "Total number of recognition calls",
		},
		[]string{"status"}, // ok, invalid_image, no_digits, model_not_ready, error
	)

	stageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "digitread_stage_duration_seconds",
			Help:    "Duration of individual pipeline stages",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"stage"}, // preprocess, binarize, segment, classify, debug
	)

	digitsRecognized = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "digitread_digits_per_image",
			Help:    "Number of digits recognized per image",
			Buckets: []float64{0, 1, 2, 4, 6, 8, 12, 16, 32},
		},
	)

	segmentationFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "digitread_projection_fallbacks_total",
			Help: "Number of images segmented with the projection fallback",
		},
	)
)

func observeStage(stage string, start time.Time) {
	stageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
