package split

import (
	"errors"
	"sort"
	"testing"
)

func TestSplitDeterministic(t *testing.T) {
	t.Parallel()

	train1, test1, err := Split(100, 0.2, 42)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	train2, test2, err := Split(100, 0.2, 42)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}

	for i := range train1 {
		if train1[i] != train2[i] {
			t.Fatalf("train[%d] differs across runs: %d vs %d", i, train1[i], train2[i])
		}
	}
	for i := range test1 {
		if test1[i] != test2[i] {
			t.Fatalf("test[%d] differs across runs: %d vs %d", i, test1[i], test2[i])
		}
	}
}

func TestSplitSeedChangesPartition(t *testing.T) {
	t.Parallel()

	_, test1, err := Split(100, 0.2, 1)
	if err != nil {
		t.Fatal(err)
	}
	_, test2, err := Split(100, 0.2, 2)
	if err != nil {
		t.Fatal(err)
	}

	same := len(test1) == len(test2)
	if same {
		for i := range test1 {
			if test1[i] != test2[i] {
				same = false
				break
			}
		}
	}
	if same {
		t.Error("different seeds produced an identical test set")
	}
}

func TestSplitCoversEveryIndexOnce(t *testing.T) {
	t.Parallel()

	for _, n := range []int{2, 7, 64, 1000} {
		train, test, err := Split(n, 0.25, 7)
		if err != nil {
			t.Fatalf("Split(%d): %v", n, err)
		}

		all := append(append([]int{}, train...), test...)
		if len(all) != n {
			t.Fatalf("n=%d: train+test = %d indices", n, len(all))
		}
		sort.Ints(all)
		for i, v := range all {
			if v != i {
				t.Fatalf("n=%d: index %d missing or duplicated (saw %d)", n, i, v)
			}
		}
	}
}

func TestSplitTestSizeRounding(t *testing.T) {
	t.Parallel()

	cases := []struct {
		n        int
		fraction float64
		wantTest int
	}{
		{10, 0.2, 2},
		{10, 0.25, 3},  // round(2.5) = 3, banker's rounding does not apply
		{6, 1.0 / 3, 2},
		{3, 0.5, 2},    // round(1.5) = 2
		{2, 0.9, 1},    // clamped to leave at least one train sample
		{2, 0.01, 1},   // clamped up to at least one test sample
	}
	for _, tc := range cases {
		train, test, err := Split(tc.n, tc.fraction, 42)
		if err != nil {
			t.Fatalf("Split(%d, %g): %v", tc.n, tc.fraction, err)
		}
		if len(test) != tc.wantTest {
			t.Errorf("Split(%d, %g): test size = %d, want %d", tc.n, tc.fraction, len(test), tc.wantTest)
		}
		if len(train) != tc.n-tc.wantTest {
			t.Errorf("Split(%d, %g): train size = %d, want %d", tc.n, tc.fraction, len(train), tc.n-tc.wantTest)
		}
	}
}

func TestSplitInvalidInput(t *testing.T) {
	t.Parallel()

	for _, fraction := range []float64{0, 1, -0.1, 1.5} {
		if _, _, err := Split(10, fraction, 42); !errors.Is(err, ErrInvalidFraction) {
			t.Errorf("Split(10, %g) = %v, want ErrInvalidFraction", fraction, err)
		}
	}
	if _, _, err := Split(0, 0.2, 42); err == nil {
		t.Error("Split(0) succeeded, want error")
	}
	if _, _, err := Split(-5, 0.2, 42); err == nil {
		t.Error("Split(-5) succeeded, want error")
	}
}
