// Package classify defines the classifier capability the pipeline
// depends on and an HTTP client implementation backed by an external
// inference sidecar.
//
// The pipeline treats classifier internals as opaque: any implementation
// that maps an (M, 2, L) batch to an (M, C) row-stochastic probability
// matrix can be plugged in. Three independent instances are used, one
// per signal representation.
package classify

import (
	"context"

	"sigclass/internal/ensemble"
	"sigclass/internal/signal"
)

// TrainConfig carries the training hyperparameters forwarded to the
// external classifier.
type TrainConfig struct {
	Epochs       int     `json:"epochs" yaml:"epochs"`
	Patience     int     `json:"patience" yaml:"patience"`
	LearningRate float64 `json:"learningRate" yaml:"learningRate"`
}

// TrainHistory is the structured per-classifier metrics record returned
// by Fit: one loss value per completed epoch.
type TrainHistory struct {
	Representation signal.Representation `json:"representation"`
	Loss           []float64             `json:"loss"`
}

// Classifier is the port the pipeline depends on. Predict must return a
// row-stochastic matrix with one row per input sample; Fit trains the
// external model on a one-hot label matrix and reports its loss curve.
// Persistence of trained state belongs to the implementation.
type Classifier interface {
	Predict(ctx context.Context, batch signal.Batch) (ensemble.Matrix, error)
	Fit(ctx context.Context, batch signal.Batch, onehot [][]float64, cfg TrainConfig) (TrainHistory, error)
}
