// Package split partitions sample indices into train and test sets.
//
// The partition is a pure function of (n, testFraction, seed), which is
// what keeps the three representation batches and the label vector
// aligned: the caller computes the partition once and applies the same
// index lists to every batch via Gather.
package split

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

// ErrInvalidFraction reports a test fraction outside (0, 1).
var ErrInvalidFraction = errors.New("split: test fraction must be in (0, 1)")

// Split shuffles 0..n-1 with a seeded Fisher-Yates pass and cuts off
// round(n*testFraction) indices for the test set. Identical (n,
// testFraction, seed) always yields identical partitions; train and test
// together cover every index exactly once.
func Split(n int, testFraction float64, seed int64) (train, test []int, err error) {
	if n <= 0 {
		return nil, nil, fmt.Errorf("split: sample count %d", n)
	}
	if testFraction <= 0 || testFraction >= 1 {
		return nil, nil, fmt.Errorf("%w: %g", ErrInvalidFraction, testFraction)
	}

	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(n, func(i, j int) { perm[i], perm[j] = perm[j], perm[i] })

	testSize := int(math.Round(float64(n) * testFraction))
	if testSize < 1 {
		testSize = 1
	}
	if testSize >= n {
		testSize = n - 1
	}

	test = perm[:testSize]
	train = perm[testSize:]
	return train, test, nil
}
