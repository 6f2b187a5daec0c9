// Package transform implements the representation pipeline: per-sample
// normalization of raw IQ batches and the pure transforms producing the
// frequency-domain (FFT) and amplitude/phase (AP) views.
//
// All operations return freshly allocated batches and never touch their
// input, so a normalized IQ batch can feed ToFFT and ToAP concurrently.
package transform

import (
	"errors"
	"fmt"
	"math"

	"sigclass/internal/signal"
)

// Norm selects the per-sample rescaling rule.
type Norm string

const (
	L1  Norm = "l1"
	L2  Norm = "l2"
	Max Norm = "max"
)

var (
	// ErrDegenerateSignal reports an all-zero sample. Normalizing such a
	// sample would divide by zero; the pipeline fails instead of emitting
	// NaN or silently passing a zero vector downstream.
	ErrDegenerateSignal = errors.New("transform: degenerate zero-norm signal")
	// ErrUnknownNorm reports a norm tag outside {l1, l2, max}.
	ErrUnknownNorm = errors.New("transform: unknown norm")
)

// Normalize rescales every sample by its own norm, computed over the
// flattened 2xL channel block, so amplitude differences between samples
// do not bias the downstream transforms. Samples are independent; the
// batch is never rescaled globally.
func Normalize(b signal.Batch, norm Norm) (signal.Batch, error) {
	if err := b.Validate(); err != nil {
		return signal.Batch{}, err
	}
	switch norm {
	case L1, L2, Max:
	default:
		return signal.Batch{}, fmt.Errorf("%w: %q", ErrUnknownNorm, norm)
	}

	out := b.Clone()
	stride := signal.Channels * b.L
	for n := 0; n < b.N; n++ {
		block := out.Data[n*stride : (n+1)*stride]
		scale := sampleNorm(block, norm)
		if scale == 0 {
			return signal.Batch{}, fmt.Errorf("%w: sample %d", ErrDegenerateSignal, n)
		}
		for i := range block {
			block[i] /= scale
		}
	}
	return out, nil
}

func sampleNorm(block []float64, norm Norm) float64 {
	var acc float64
	switch norm {
	case L1:
		for _, v := range block {
			acc += math.Abs(v)
		}
	case L2:
		for _, v := range block {
			acc += v * v
		}
		acc = math.Sqrt(acc)
	case Max:
		for _, v := range block {
			if a := math.Abs(v); a > acc {
				acc = a
			}
		}
	}
	return acc
}
