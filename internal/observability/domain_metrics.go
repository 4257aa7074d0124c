package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	questionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sqlagent_questions_total",
			Help: "Total number of natural language questions processed.",
		},
	)
	extractionFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sqlagent_extraction_failures_total",
			Help: "Total number of model responses from which no SQL could be extracted.",
		},
	)
	validationRejectionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sqlagent_validation_rejections_total",
			Help: "Total number of extracted statements rejected by the safety policy.",
		},
	)
	sqlErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sqlagent_sql_errors_total",
			Help: "Total number of generated statements that failed during execution.",
		},
	)
	modelRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sqlagent_model_request_duration_seconds",
			Help:    "Model call latency by purpose.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30},
		},
		[]string{"purpose"},
	)
	queryDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sqlagent_query_duration_seconds",
			Help:    "Generated SQL execution latency.",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
	)
)

func init() {
	prometheus.MustRegister(
		questionsTotal,
		extractionFailuresTotal,
		validationRejectionsTotal,
		sqlErrorsTotal,
		modelRequestDurationSeconds,
		queryDurationSeconds,
	)
}

func IncrementQuestions() {
	questionsTotal.Inc()
}

func IncrementExtractionFailures() {
	extractionFailuresTotal.Inc()
}

func IncrementValidationRejections() {
	validationRejectionsTotal.Inc()
}

func IncrementSQLErrors() {
	sqlErrorsTotal.Inc()
}

func ObserveModelRequestDuration(purpose string, duration time.Duration) {
	modelRequestDurationSeconds.WithLabelValues(purpose).Observe(duration.Seconds())
}

func ObserveQueryDuration(duration time.Duration) {
	queryDurationSeconds.Observe(duration.Seconds())
}
