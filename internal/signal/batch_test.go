package signal

import (
	"errors"
	"testing"
)

func TestBatchLayout(t *testing.T) {
	t.Parallel()
	b := NewBatch(2, 3)

	b.Set(0, 0, 0, 1.5)
	b.Set(0, 1, 2, -2.5)
	b.Set(1, 0, 1, 3.0)

	if got := b.At(0, 0, 0); got != 1.5 {
		t.Errorf("At(0,0,0) = %v, want 1.5", got)
	}
	if got := b.At(0, 1, 2); got != -2.5 {
		t.Errorf("At(0,1,2) = %v, want -2.5", got)
	}
	if got := b.Channel(1, 0)[1]; got != 3.0 {
		t.Errorf("Channel(1,0)[1] = %v, want 3.0", got)
	}
	if err := b.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestBatchValidate(t *testing.T) {
	t.Parallel()
	b := NewBatch(2, 4)
	b.Data = b.Data[:5] // corrupt the backing array

	if err := b.Validate(); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("Validate() = %v, want ErrShapeMismatch", err)
	}
}

func TestBatchCloneIsIndependent(t *testing.T) {
	t.Parallel()
	b := NewBatch(1, 2)
	b.Set(0, 0, 0, 1.0)

	c := b.Clone()
	c.Set(0, 0, 0, 9.0)

	if got := b.At(0, 0, 0); got != 1.0 {
		t.Errorf("clone mutation leaked into original: %v", got)
	}
}

func TestBatchGather(t *testing.T) {
	t.Parallel()
	b := NewBatch(3, 2)
	for n := 0; n < 3; n++ {
		for ch := 0; ch < Channels; ch++ {
			for tt := 0; tt < 2; tt++ {
				b.Set(n, ch, tt, float64(n*100+ch*10+tt))
			}
		}
	}

	out, err := b.Gather([]int{2, 0})
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if out.N != 2 || out.L != 2 {
		t.Fatalf("Gather shape = (%d,%d), want (2,2)", out.N, out.L)
	}
	if got := out.At(0, 1, 1); got != 211 {
		t.Errorf("gathered sample 0 = %v, want 211", got)
	}
	if got := out.At(1, 0, 0); got != 0 {
		t.Errorf("gathered sample 1 = %v, want 0", got)
	}

	if _, err := b.Gather([]int{3}); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("Gather out of range = %v, want ErrShapeMismatch", err)
	}
}

func TestLabelsGather(t *testing.T) {
	t.Parallel()
	labels := Labels{0, 1, 2, 1}

	out, err := labels.Gather([]int{3, 0})
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if out[0] != 1 || out[1] != 0 {
		t.Errorf("Gather = %v, want [1 0]", out)
	}

	if _, err := labels.Gather([]int{-1}); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("Gather(-1) = %v, want ErrShapeMismatch", err)
	}
}

func TestOneHot(t *testing.T) {
	t.Parallel()
	out, err := OneHot(Labels{0, 2, 1}, 3)
	if err != nil {
		t.Fatalf("OneHot: %v", err)
	}

	want := [][]float64{{1, 0, 0}, {0, 0, 1}, {0, 1, 0}}
	for i, row := range want {
		for c, v := range row {
			if out[i][c] != v {
				t.Errorf("OneHot[%d][%d] = %v, want %v", i, c, out[i][c], v)
			}
		}
	}

	if _, err := OneHot(Labels{3}, 3); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("OneHot out-of-range label = %v, want ErrShapeMismatch", err)
	}
	if _, err := OneHot(Labels{0}, 0); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("OneHot zero classes = %v, want ErrShapeMismatch", err)
	}
}
