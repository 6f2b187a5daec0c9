package transform

import (
	"math"

	"sigclass/internal/signal"
)

// ToFFT produces the centered frequency-domain view of a normalized IQ
// batch. Per sample: the channel pair is recombined into complex values
// I[t]+iQ[t], transformed along the time axis, shifted so the
// zero-frequency bin is centered, then split back into real (channel 0)
// and imaginary (channel 1) parts. Deterministic for a fixed input.
func ToFFT(b signal.Batch) (signal.Batch, error) {
	if err := b.Validate(); err != nil {
		return signal.Batch{}, err
	}

	out := signal.NewBatch(b.N, b.L)
	buf := make([]complex128, b.L)
	for n := 0; n < b.N; n++ {
		i := b.Channel(n, 0)
		q := b.Channel(n, 1)
		for t := 0; t < b.L; t++ {
			buf[t] = complex(i[t], q[t])
		}
		spectrum := fftShift(fft(buf))
		re := out.Channel(n, 0)
		im := out.Channel(n, 1)
		for t, v := range spectrum {
			re[t] = real(v)
			im[t] = imag(v)
		}
	}
	return out, nil
}

// FromFFT inverts ToFFT: undo the center shift, inverse-transform, and
// split back into I/Q channels. Exists for round-trip verification.
func FromFFT(b signal.Batch) (signal.Batch, error) {
	if err := b.Validate(); err != nil {
		return signal.Batch{}, err
	}

	out := signal.NewBatch(b.N, b.L)
	buf := make([]complex128, b.L)
	for n := 0; n < b.N; n++ {
		re := b.Channel(n, 0)
		im := b.Channel(n, 1)
		for t := 0; t < b.L; t++ {
			buf[t] = complex(re[t], im[t])
		}
		wave := ifft(ifftShift(buf))
		i := out.Channel(n, 0)
		q := out.Channel(n, 1)
		for t, v := range wave {
			i[t] = real(v)
			q[t] = imag(v)
		}
	}
	return out, nil
}

// ToAP produces the polar view of a normalized IQ batch. The
// decomposition runs independently at every time index: channel 0 is
// the amplitude series hypot(I[t], Q[t]) >= 0, channel 1 the phase
// series atan2(Q[t], I[t]) in (-pi, pi]. The output is a full L-length
// time series per channel, never a single per-sample value.
func ToAP(b signal.Batch) (signal.Batch, error) {
	if err := b.Validate(); err != nil {
		return signal.Batch{}, err
	}

	out := signal.NewBatch(b.N, b.L)
	for n := 0; n < b.N; n++ {
		i := b.Channel(n, 0)
		q := b.Channel(n, 1)
		amp := out.Channel(n, 0)
		phase := out.Channel(n, 1)
		for t := 0; t < b.L; t++ {
			amp[t] = math.Hypot(i[t], q[t])
			phase[t] = math.Atan2(q[t], i[t])
		}
	}
	return out, nil
}
