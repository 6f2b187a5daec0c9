package ensemble

import (
	"errors"
	"fmt"
	"math"
)

// Method selects the bagging aggregation rule.
type Method string

const (
	Geometric  Method = "geometric"
	Arithmetic Method = "arithmetic"
)

// ErrUnknownMethod reports a method tag outside {geometric, arithmetic}.
var ErrUnknownMethod = errors.New("ensemble: unknown bagging method")

// Bag combines K probability matrices of identical shape into one.
//
// Geometric takes the element-wise K-th root of the product and then
// renormalizes each row, since the geometric mean of stochastic rows is
// not itself stochastic. A zero entry in any input zeroes that element
// of the output regardless of the other classifiers' confidence; this
// veto is the intended behavior of the geometric rule and the main way
// it differs from the arithmetic mean.
//
// Arithmetic takes the element-wise mean; rows stay stochastic because
// every input row already sums to 1.
func Bag(preds []Matrix, method Method) (Matrix, error) {
	if len(preds) == 0 {
		return Matrix{}, fmt.Errorf("%w: no prediction matrices", ErrShapeMismatch)
	}
	first := preds[0]
	for i, p := range preds {
		if p.Rows != first.Rows || p.Cols != first.Cols {
			return Matrix{}, fmt.Errorf("%w: matrix %d is %dx%d, want %dx%d",
				ErrShapeMismatch, i, p.Rows, p.Cols, first.Rows, first.Cols)
		}
		if len(p.Data) != p.Rows*p.Cols {
			return Matrix{}, fmt.Errorf("%w: matrix %d backing array", ErrShapeMismatch, i)
		}
	}

	out := NewMatrix(first.Rows, first.Cols)
	k := float64(len(preds))

	switch method {
	case Geometric:
		for i := range out.Data {
			prod := 1.0
			for _, p := range preds {
				prod *= p.Data[i]
			}
			out.Data[i] = math.Pow(prod, 1/k)
		}
		for r := 0; r < out.Rows; r++ {
			renormalizeRow(out.Row(r))
		}
	case Arithmetic:
		for i := range out.Data {
			var sum float64
			for _, p := range preds {
				sum += p.Data[i]
			}
			out.Data[i] = sum / k
		}
	default:
		return Matrix{}, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}

	return out, nil
}

// renormalizeRow projects a row back onto the simplex. A row that
// vetoed to all zeros falls back to the uniform distribution so the
// result stays a valid categorical distribution.
func renormalizeRow(row []float64) {
	var sum float64
	for _, v := range row {
		sum += v
	}
	if sum == 0 {
		uniform := 1 / float64(len(row))
		for i := range row {
			row[i] = uniform
		}
		return
	}
	for i := range row {
		row[i] /= sum
	}
}
