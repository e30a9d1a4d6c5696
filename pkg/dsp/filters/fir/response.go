package fir

import (
	"math"
	"math/cmplx"

	dspfft "github.com/mjibson/go-dsp/fft"
)

// FrequencyResponse evaluates the magnitude response of a tap set at n
// uniformly spaced points from DC to Nyquist.
func FrequencyResponse(taps []float32, n int) []float64 {
	size := 2 * n
	for size < len(taps) {
		size *= 2
	}

	buf := make([]float64, size)
	for i, t := range taps {
		buf[i] = float64(t)
	}

	coeffs := dspfft.FFTReal(buf)
	ret := make([]float64, n)
	for i := 0; i < n; i++ {
		ret[i] = cmplx.Abs(coeffs[i*size/(2*n)])
	}
	return ret
}

// StopbandPeak returns the worst-case magnitude at or above the given
// normalized frequency (0..0.5 of the sample rate).
func StopbandPeak(taps []float32, normFreq float64) float64 {
	const points = 512
	resp := FrequencyResponse(taps, points)
	start := int(normFreq * 2 * points)
	if start >= len(resp) {
		start = len(resp) - 1
	}

	var peak float64
	for _, v := range resp[start:] {
		peak = math.Max(peak, v)
	}
	return peak
}
