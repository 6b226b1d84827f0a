package metrics

import "github.com/prometheus/client_golang/prometheus"

// Answer pipeline Prometheus metrics.
var (
	AnswersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "book2ai",
			Name:      "answers_total",
			Help:      "Total answered questions by outcome",
		},
		[]string{"pack", "outcome"}, // outcome: "generated" / "curated" / "error"
	)

	AnswerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "book2ai",
			Name:      "answer_duration_seconds",
			Help:      "Full answer pipeline duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"pack"},
	)

	StreamFramesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "book2ai",
			Name:      "stream_frames_total",
			Help:      "Total stream frames emitted by type",
		},
		[]string{"type"},
	)

	StreamFrameErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "book2ai",
			Name:      "stream_frame_errors_total",
			Help:      "Malformed upstream frames skipped during relay",
		},
	)
)

var answerMetricsRegistered bool

// RegisterAnswerMetrics registers Prometheus answer metrics. Must be called once from main.
func RegisterAnswerMetrics() {
	if answerMetricsRegistered {
		return
	}
	prometheus.MustRegister(AnswersTotal)
	prometheus.MustRegister(AnswerDuration)
	prometheus.MustRegister(StreamFramesTotal)
	prometheus.MustRegister(StreamFrameErrorsTotal)
	answerMetricsRegistered = true
}
