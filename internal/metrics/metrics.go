// Package metrics exposes Prometheus collectors for HTTP traffic and résumé scoring.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "resume_matcher"

// Scoring request statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
	StatusEmpty = "empty_response"
)

// Résumé processing outcomes.
const (
	OutcomeScored     = "scored"
	OutcomeParseError = "parse_error"
	OutcomeAPIError   = "api_error"
)

var (
	ScoringRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scoring_requests_total",
			Help:      "Total number of requests sent to the scoring provider",
		},
		[]string{"provider", "model", "status"},
	)

	ScoringRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scoring_request_duration_seconds",
			Help:      "Scoring provider request duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
		},
		[]string{"provider", "model"},
	)

	ResumesProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resumes_processed_total",
			Help:      "Résumés processed by outcome",
		},
		[]string{"outcome"},
	)

	ResumeScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "resume_score",
			Help:      "Distribution of scores assigned to résumés",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		},
	)
)

var registerOnce sync.Once

// Register registers all collectors with the default registry. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequestDuration,
			httpRequestsTotal,
			ScoringRequestsTotal,
			ScoringRequestDuration,
			ResumesProcessedTotal,
			ResumeScore,
		)
	})
}

// ObserveScoring records one scoring provider request.
func ObserveScoring(provider, model, status string, duration time.Duration) {
	ScoringRequestsTotal.WithLabelValues(provider, model, status).Inc()
	ScoringRequestDuration.WithLabelValues(provider, model).Observe(duration.Seconds())
}

// ObserveResume records the outcome of processing one résumé.
func ObserveResume(outcome string, score int) {
	ResumesProcessedTotal.WithLabelValues(outcome).Inc()
	if outcome == OutcomeScored {
		ResumeScore.Observe(float64(score))
	}
}
