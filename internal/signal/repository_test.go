package signal

import (
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func frame(i, q float64, l int) Frame {
	fr := Frame{I: make([]float64, l), Q: make([]float64, l)}
	for t := 0; t < l; t++ {
		fr.I[t] = i
		fr.Q[t] = q
	}
	return fr
}

func TestLoadConcatenatesInSourceOrder(t *testing.T) {
	t.Parallel()
	sources := []Source{
		SliceSource{Name: "bpsk", Signal: []Frame{frame(1, 0, 4), frame(2, 0, 4)}},
		SliceSource{Name: "qpsk", Signal: []Frame{frame(3, 0, 4)}},
	}

	batch, labels, err := Load(sources)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if batch.N != 3 || batch.L != 4 {
		t.Fatalf("batch shape = (%d,%d), want (3,4)", batch.N, batch.L)
	}
	wantLabels := Labels{0, 0, 1}
	for i, lbl := range wantLabels {
		if labels[i] != lbl {
			t.Errorf("labels[%d] = %d, want %d", i, labels[i], lbl)
		}
	}
	// Label i must point at signal i: sample 2 is the qpsk frame.
	if got := batch.At(2, 0, 0); got != 3 {
		t.Errorf("sample 2 I[0] = %v, want 3", got)
	}
}

func TestLoadEmptySource(t *testing.T) {
	t.Parallel()
	_, _, err := Load([]Source{SliceSource{Name: "empty"}})
	if !errors.Is(err, ErrEmptySource) {
		t.Errorf("Load(empty) = %v, want ErrEmptySource", err)
	}

	_, _, err = Load(nil)
	if !errors.Is(err, ErrEmptySource) {
		t.Errorf("Load(nil) = %v, want ErrEmptySource", err)
	}
}

func TestLoadShapeMismatch(t *testing.T) {
	t.Parallel()

	// Frame length differs between classes.
	_, _, err := Load([]Source{
		SliceSource{Name: "a", Signal: []Frame{frame(1, 0, 4)}},
		SliceSource{Name: "b", Signal: []Frame{frame(1, 0, 8)}},
	})
	if !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("mixed lengths = %v, want ErrShapeMismatch", err)
	}

	// I and Q lengths differ within a frame.
	bad := Frame{I: make([]float64, 4), Q: make([]float64, 3)}
	_, _, err = Load([]Source{SliceSource{Name: "a", Signal: []Frame{bad}}})
	if !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("ragged frame = %v, want ErrShapeMismatch", err)
	}
}

func TestFileSourceReadsInterleavedIQ(t *testing.T) {
	t.Parallel()

	// Two frames of length 2, interleaved I/Q float32 pairs, plus one
	// trailing pair that must be discarded as a partial frame.
	values := []float32{1, -1, 2, -2, 3, -3, 4, -4, 5, -5}
	buf := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}

	path := filepath.Join(t.TempDir(), "capture.dat")
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatal(err)
	}

	frames, err := FileSource{Name: "bpsk", Path: path, FrameLen: 2}.Frames()
	if err != nil {
		t.Fatalf("Frames: %v", err)
	}
	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}
	if frames[0].I[0] != 1 || frames[0].Q[0] != -1 || frames[0].I[1] != 2 || frames[0].Q[1] != -2 {
		t.Errorf("frame 0 = %+v", frames[0])
	}
	if frames[1].I[0] != 3 || frames[1].Q[1] != -4 {
		t.Errorf("frame 1 = %+v", frames[1])
	}
}

func TestFileSourceTooShort(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "tiny.dat")
	if err := os.WriteFile(path, make([]byte, 8), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := FileSource{Name: "x", Path: path, FrameLen: 16}.Frames()
	if !errors.Is(err, ErrEmptySource) {
		t.Errorf("short capture = %v, want ErrEmptySource", err)
	}
}
