package signal

import "fmt"

// Labels is an ordered class-index vector positionally aligned with a
// batch: label i always refers to sample i, in every representation.
type Labels []int

// Gather returns the labels of the listed samples in order.
func (l Labels) Gather(indices []int) (Labels, error) {
	out := make(Labels, len(indices))
	for i, idx := range indices {
		if idx < 0 || idx >= len(l) {
			return nil, fmt.Errorf("%w: label index %d outside [0,%d)", ErrShapeMismatch, idx, len(l))
		}
		out[i] = l[idx]
	}
	return out, nil
}

// OneHot expands integer labels into an (N, classes) 0/1 matrix for the
// classifier training boundary.
func OneHot(labels Labels, classes int) ([][]float64, error) {
	if classes <= 0 {
		return nil, fmt.Errorf("%w: class count %d", ErrShapeMismatch, classes)
	}
	out := make([][]float64, len(labels))
	for i, lbl := range labels {
		if lbl < 0 || lbl >= classes {
			return nil, fmt.Errorf("%w: label %d outside [0,%d)", ErrShapeMismatch, lbl, classes)
		}
		row := make([]float64, classes)
		row[lbl] = 1
		out[i] = row
	}
	return out, nil
}
