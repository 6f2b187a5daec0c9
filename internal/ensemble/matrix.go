// Package ensemble combines per-representation class-probability
// matrices into a single prediction and scores predictions against true
// labels.
package ensemble

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrShapeMismatch reports bagging inputs of unequal shape.
	ErrShapeMismatch = errors.New("ensemble: shape mismatch")
	// ErrDimensionMismatch reports label/prediction disagreement at scoring time.
	ErrDimensionMismatch = errors.New("ensemble: dimension mismatch")
)

// Matrix is a row-stochastic (Rows, Cols) probability matrix: row m is a
// categorical distribution over the Cols classes for test sample m.
// Layout is row-major.
type Matrix struct {
	Rows, Cols int
	Data       []float64
}

// NewMatrix allocates a zeroed matrix.
func NewMatrix(rows, cols int) Matrix {
	return Matrix{Rows: rows, Cols: cols, Data: make([]float64, rows*cols)}
}

// At returns the probability of class c for row m.
func (m Matrix) At(row, col int) float64 { return m.Data[row*m.Cols+col] }

// Set stores v at (row, col).
func (m Matrix) Set(row, col int, v float64) { m.Data[row*m.Cols+col] = v }

// Row returns row m as a subslice of the backing array.
func (m Matrix) Row(row int) []float64 {
	return m.Data[row*m.Cols : (row+1)*m.Cols]
}

// Validate checks dimensions, value bounds and that every row sums to 1
// within tol. Classifier outputs pass through this before they are
// trusted by the bagging and scoring stages.
func (m Matrix) Validate(tol float64) error {
	if m.Rows <= 0 || m.Cols <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrShapeMismatch, m.Rows, m.Cols)
	}
	if len(m.Data) != m.Rows*m.Cols {
		return fmt.Errorf("%w: backing array holds %d values, want %d", ErrShapeMismatch, len(m.Data), m.Rows*m.Cols)
	}
	for r := 0; r < m.Rows; r++ {
		var sum float64
		for _, p := range m.Row(r) {
			if math.IsNaN(p) || p < 0 || p > 1 {
				return fmt.Errorf("%w: row %d holds invalid probability %g", ErrShapeMismatch, r, p)
			}
			sum += p
		}
		if math.Abs(sum-1) > tol {
			return fmt.Errorf("%w: row %d sums to %g", ErrShapeMismatch, r, sum)
		}
	}
	return nil
}
