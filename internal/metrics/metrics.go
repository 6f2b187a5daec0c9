// Package metrics provides Prometheus metrics collection for the signal
// classification pipeline: representation transforms, classifier calls,
// ensemble scores and live frame ingestion are all exposed via the
// Prometheus metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for the pipeline.
type Metrics struct {
	// Pipeline metrics
	TransformDuration *prometheus.HistogramVec // Representation transform duration by representation tag
	SamplesLoaded     prometheus.Counter       // Total signal samples loaded into batches
	RunsTotal         prometheus.Counter       // Total pipeline runs completed

	// Classifier metrics
	Predictions       *prometheus.CounterVec // Predict calls by representation
	PredictionErrors  *prometheus.CounterVec // Failed Predict calls by representation
	PredictionLatency prometheus.Histogram   // End-to-end classifier call latency in seconds

	// Ensemble metrics
	EnsembleScore   *prometheus.GaugeVec // Bounded score of the latest run by bagging method
	EnsembleLogLoss *prometheus.GaugeVec // Log-loss of the latest run by bagging method

	// Live ingestion metrics
	FramesIngested prometheus.Counter // IQ frames received over the stream
	StreamRedials  prometheus.Counter // Stream reconnection attempts

	// System metrics
	ErrorsTotal prometheus.Counter // Total errors encountered
}

// New creates and registers all metrics using the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry (useful for
// tests, which need isolation from the global registry).
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		TransformDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "transform_duration_seconds",
			Help:    "Representation transform duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"representation"}),
		SamplesLoaded: factory.NewCounter(prometheus.CounterOpts{
			Name: "samples_loaded_total",
			Help: "Total signal samples loaded into batches",
		}),
		RunsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "pipeline_runs_total",
			Help: "Total pipeline runs completed",
		}),
		Predictions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "classifier_predictions_total",
			Help: "Total classifier Predict calls",
		}, []string{"representation"}),
		PredictionErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "classifier_prediction_errors_total",
			Help: "Total failed classifier Predict calls",
		}, []string{"representation"}),
		PredictionLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "classifier_latency_seconds",
			Help:    "Classifier call latency in seconds (end-to-end)",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		}),
		EnsembleScore: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ensemble_bounded_score",
			Help: "Bounded score 100/(1+logloss) of the latest run",
		}, []string{"method"}),
		EnsembleLogLoss: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ensemble_log_loss",
			Help: "Log-loss of the latest run",
		}, []string{"method"}),
		FramesIngested: factory.NewCounter(prometheus.CounterOpts{
			Name: "frames_ingested_total",
			Help: "IQ frames received over the live stream",
		}),
		StreamRedials: factory.NewCounter(prometheus.CounterOpts{
			Name: "stream_redials_total",
			Help: "Live stream reconnection attempts",
		}),
		ErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors encountered",
		}),
	}
}
