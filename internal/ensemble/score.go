package ensemble

import (
	"fmt"
	"math"

	"sigclass/internal/signal"
)

// probFloor is the default clamp keeping the log-loss finite when a
// classifier assigns exactly zero probability to the true class.
const probFloor = 1e-15

// Score computes the mean negative log-likelihood of the true class
// (cross-entropy) and the bounded comparison score 100/(1+logLoss),
// clamping with the default probability floor.
//
// The bounded score is monotonically decreasing in log-loss and lies in
// (0, 100]: a perfect prediction scores 100, an arbitrarily bad one
// approaches 0.
func Score(labels signal.Labels, pred Matrix) (bounded, logLoss float64, err error) {
	return ScoreWithFloor(labels, pred, probFloor)
}

// ScoreWithFloor is Score with a caller-chosen probability floor:
// predicted probabilities below floor are clamped up to it before the
// logarithm. A floor outside (0, 1) falls back to the default.
func ScoreWithFloor(labels signal.Labels, pred Matrix, floor float64) (bounded, logLoss float64, err error) {
	if floor <= 0 || floor >= 1 {
		floor = probFloor
	}
	if len(labels) != pred.Rows {
		return 0, 0, fmt.Errorf("%w: %d labels for %d prediction rows",
			ErrDimensionMismatch, len(labels), pred.Rows)
	}
	if pred.Rows == 0 {
		return 0, 0, fmt.Errorf("%w: empty prediction matrix", ErrDimensionMismatch)
	}

	var total float64
	for i, lbl := range labels {
		if lbl < 0 || lbl >= pred.Cols {
			return 0, 0, fmt.Errorf("%w: label %d outside [0,%d)", ErrDimensionMismatch, lbl, pred.Cols)
		}
		p := pred.At(i, lbl)
		if p < floor {
			p = floor
		}
		total += -math.Log(p)
	}

	logLoss = total / float64(pred.Rows)
	bounded = 100 / (1 + logLoss)
	return bounded, logLoss, nil
}

// Accuracy returns the argmax accuracy of the predictions, reported
// alongside the bounded score in run summaries.
func Accuracy(labels signal.Labels, pred Matrix) (float64, error) {
	if len(labels) != pred.Rows {
		return 0, fmt.Errorf("%w: %d labels for %d prediction rows",
			ErrDimensionMismatch, len(labels), pred.Rows)
	}
	if pred.Rows == 0 {
		return 0, fmt.Errorf("%w: empty prediction matrix", ErrDimensionMismatch)
	}

	correct := 0
	for i, lbl := range labels {
		best, bestIdx := math.Inf(-1), -1
		for c, p := range pred.Row(i) {
			if p > best {
				best, bestIdx = p, c
			}
		}
		if bestIdx == lbl {
			correct++
		}
	}
	return float64(correct) / float64(pred.Rows), nil
}
