package signal

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

// Frame is a single complex baseband signal split into its two real
// channels. Both slices are always the same length.
type Frame struct {
	I []float64
	Q []float64
}

// Len returns the bin count of the frame.
func (f Frame) Len() int { return len(f.I) }

// Source yields the raw frames of one modulation class. Storage format
// is up to the implementation; the repository only requires that every
// frame from every source shares a single fixed length.
type Source interface {
	Label() string
	Frames() ([]Frame, error)
}

// Load concatenates the frames of all class sources, in source order,
// into one batch and builds the aligned label vector: class index i is
// repeated once per frame of source i.
func Load(sources []Source) (Batch, Labels, error) {
	if len(sources) == 0 {
		return Batch{}, nil, fmt.Errorf("%w: no class sources", ErrEmptySource)
	}

	var frames []Frame
	var labels Labels
	binLen := 0

	for class, src := range sources {
		classFrames, err := src.Frames()
		if err != nil {
			return Batch{}, nil, fmt.Errorf("load class %q: %w", src.Label(), err)
		}
		if len(classFrames) == 0 {
			return Batch{}, nil, fmt.Errorf("%w: class %q yielded no frames", ErrEmptySource, src.Label())
		}
		for _, fr := range classFrames {
			if len(fr.I) != len(fr.Q) {
				return Batch{}, nil, fmt.Errorf("%w: class %q frame has I=%d Q=%d bins",
					ErrShapeMismatch, src.Label(), len(fr.I), len(fr.Q))
			}
			if binLen == 0 {
				binLen = fr.Len()
			}
			if fr.Len() != binLen {
				return Batch{}, nil, fmt.Errorf("%w: class %q frame length %d, want %d",
					ErrShapeMismatch, src.Label(), fr.Len(), binLen)
			}
			frames = append(frames, fr)
			labels = append(labels, class)
		}
		log.Debug().Str("class", src.Label()).Int("frames", len(classFrames)).Msg("class source loaded")
	}

	batch := NewBatch(len(frames), binLen)
	for n, fr := range frames {
		copy(batch.Channel(n, 0), fr.I)
		copy(batch.Channel(n, 1), fr.Q)
	}

	log.Info().Int("samples", batch.N).Int("bins", batch.L).Int("classes", len(sources)).Msg("signal batch assembled")
	return batch, labels, nil
}

// SliceSource is an in-memory Source, used by tests and by the live
// ingestion path which accumulates frames before classification.
type SliceSource struct {
	Name   string
	Signal []Frame
}

func (s SliceSource) Label() string            { return s.Name }
func (s SliceSource) Frames() ([]Frame, error) { return s.Signal, nil }
