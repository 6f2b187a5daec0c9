package transform

import "math"

// fft computes the discrete Fourier transform of the input. Power-of-two
// lengths use the recursive radix-2 Cooley-Tukey algorithm; other lengths
// fall back to the direct O(L^2) definition so the transform stays
// defined for any positive L.
func fft(in []complex128) []complex128 {
	if isPowerOfTwo(len(in)) {
		buf := make([]complex128, len(in))
		copy(buf, in)
		return radix2(buf)
	}
	return dft(in, -1)
}

// ifft computes the inverse transform, scaled by 1/L.
func ifft(in []complex128) []complex128 {
	n := len(in)
	var out []complex128
	if isPowerOfTwo(n) {
		conj := make([]complex128, n)
		for i, v := range in {
			conj[i] = complex(real(v), -imag(v))
		}
		out = radix2(conj)
		for i, v := range out {
			out[i] = complex(real(v)/float64(n), -imag(v)/float64(n))
		}
		return out
	}
	out = dft(in, +1)
	for i, v := range out {
		out[i] = v / complex(float64(n), 0)
	}
	return out
}

func radix2(in []complex128) []complex128 {
	n := len(in)
	if n <= 1 {
		return in
	}

	even := make([]complex128, n/2)
	odd := make([]complex128, n/2)
	for i := 0; i < n/2; i++ {
		even[i] = in[2*i]
		odd[i] = in[2*i+1]
	}

	even = radix2(even)
	odd = radix2(odd)

	out := make([]complex128, n)
	for k := 0; k < n/2; k++ {
		angle := -2 * math.Pi * float64(k) / float64(n)
		t := complex(math.Cos(angle), math.Sin(angle)) * odd[k]
		out[k] = even[k] + t
		out[k+n/2] = even[k] - t
	}
	return out
}

// dft is the direct transform; sign -1 forward, +1 inverse (unscaled).
func dft(in []complex128, sign float64) []complex128 {
	n := len(in)
	out := make([]complex128, n)
	for k := 0; k < n; k++ {
		var acc complex128
		for t := 0; t < n; t++ {
			angle := sign * 2 * math.Pi * float64(k) * float64(t) / float64(n)
			acc += in[t] * complex(math.Cos(angle), math.Sin(angle))
		}
		out[k] = acc
	}
	return out
}

// fftShift rotates the spectrum so the zero-frequency bin sits at the
// center: out[i] = in[(i + L - L/2) % L].
func fftShift(in []complex128) []complex128 {
	n := len(in)
	out := make([]complex128, n)
	half := n - n/2
	for i := range in {
		out[i] = in[(i+half)%n]
	}
	return out
}

// ifftShift undoes fftShift for any length, odd included.
func ifftShift(in []complex128) []complex128 {
	n := len(in)
	out := make([]complex128, n)
	for i := range in {
		out[i] = in[(i+n/2)%n]
	}
	return out
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
