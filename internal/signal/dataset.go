package signal

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
)

// FileSource reads frames from a raw capture file of interleaved
// little-endian float32 I/Q pairs (the layout SDR collectors write:
// I0 Q0 I1 Q1 ...). The capture is cut into consecutive frames of
// FrameLen bins; a trailing partial frame is discarded.
type FileSource struct {
	Name     string
	Path     string
	FrameLen int
}

func (s FileSource) Label() string { return s.Name }

func (s FileSource) Frames() ([]Frame, error) {
	if s.FrameLen <= 0 {
		return nil, fmt.Errorf("%w: frame length %d", ErrShapeMismatch, s.FrameLen)
	}

	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read capture %s: %w", s.Path, err)
	}

	const pairBytes = 8 // two float32 values per complex sample
	pairs := len(data) / pairBytes
	frameCount := pairs / s.FrameLen
	if frameCount == 0 {
		return nil, fmt.Errorf("%w: capture %s holds %d samples, need %d per frame",
			ErrEmptySource, s.Path, pairs, s.FrameLen)
	}

	frames := make([]Frame, frameCount)
	for n := 0; n < frameCount; n++ {
		fr := Frame{I: make([]float64, s.FrameLen), Q: make([]float64, s.FrameLen)}
		base := n * s.FrameLen * pairBytes
		for t := 0; t < s.FrameLen; t++ {
			off := base + t*pairBytes
			fr.I[t] = float64(math.Float32frombits(binary.LittleEndian.Uint32(data[off:])))
			fr.Q[t] = float64(math.Float32frombits(binary.LittleEndian.Uint32(data[off+4:])))
		}
		frames[n] = fr
	}
	return frames, nil
}
