// Package signal defines the in-memory data model for complex baseband
// signal batches and the repository that assembles labeled batches from
// per-class sources.
//
// A batch holds N samples of 2 channels (in-phase and quadrature, or a
// derived channel pair) with L bins each. Batches are value types over a
// flat float64 slice; every transform in the pipeline returns a freshly
// allocated batch and never mutates its input, so an upstream batch can
// feed several downstream stages without aliasing hazards.
package signal

import (
	"errors"
	"fmt"
)

// Channels is the fixed channel count of every batch. Channel 0 carries
// the in-phase (or real/amplitude) series, channel 1 the quadrature
// (or imaginary/phase) series.
const Channels = 2

var (
	// ErrShapeMismatch reports arrays that violate the (N, 2, L) contract.
	ErrShapeMismatch = errors.New("signal: shape mismatch")
	// ErrEmptySource reports a class source that yielded no frames.
	ErrEmptySource = errors.New("signal: empty source")
)

// Representation tags which transform produced a batch.
type Representation string

const (
	IQ  Representation = "iq"
	FFT Representation = "fft"
	AP  Representation = "ap"
)

// Representations lists the three parallel views of a signal in pipeline order.
func Representations() []Representation { return []Representation{IQ, FFT, AP} }

// Batch is an ordered collection of N two-channel signals of length L.
// Layout is sample-major: Data[(n*Channels+ch)*L+t].
type Batch struct {
	N, L int
	Data []float64
}

// NewBatch allocates a zeroed batch of n samples with l bins per channel.
func NewBatch(n, l int) Batch {
	return Batch{N: n, L: l, Data: make([]float64, n*Channels*l)}
}

// At returns the value at sample n, channel ch, bin t.
func (b Batch) At(n, ch, t int) float64 {
	return b.Data[(n*Channels+ch)*b.L+t]
}

// Set stores v at sample n, channel ch, bin t.
func (b Batch) Set(n, ch, t int, v float64) {
	b.Data[(n*Channels+ch)*b.L+t] = v
}

// Channel returns the bins of one channel of one sample as a subslice of
// the backing array. Callers must treat it as read-only.
func (b Batch) Channel(n, ch int) []float64 {
	off := (n*Channels + ch) * b.L
	return b.Data[off : off+b.L]
}

// Clone returns a deep copy of the batch.
func (b Batch) Clone() Batch {
	out := Batch{N: b.N, L: b.L, Data: make([]float64, len(b.Data))}
	copy(out.Data, b.Data)
	return out
}

// Gather returns a new batch holding the listed samples in order.
// Indices may repeat; each must be in [0, N).
func (b Batch) Gather(indices []int) (Batch, error) {
	out := NewBatch(len(indices), b.L)
	stride := Channels * b.L
	for i, idx := range indices {
		if idx < 0 || idx >= b.N {
			return Batch{}, fmt.Errorf("%w: sample index %d outside [0,%d)", ErrShapeMismatch, idx, b.N)
		}
		copy(out.Data[i*stride:(i+1)*stride], b.Data[idx*stride:(idx+1)*stride])
	}
	return out, nil
}

// Validate checks internal consistency of the batch dimensions.
func (b Batch) Validate() error {
	if b.N < 0 || b.L <= 0 {
		return fmt.Errorf("%w: invalid dimensions N=%d L=%d", ErrShapeMismatch, b.N, b.L)
	}
	if len(b.Data) != b.N*Channels*b.L {
		return fmt.Errorf("%w: backing array holds %d values, want %d", ErrShapeMismatch, len(b.Data), b.N*Channels*b.L)
	}
	return nil
}
