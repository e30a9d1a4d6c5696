package fir

import "math"

func computeNTaps(sampleRate, transitionWidth float64, winType WindowType) int {
	maxAttenuation := windowMaxAttenuation[winType]
	ntaps := int(float64(maxAttenuation) * sampleRate / (22.0 * transitionWidth))
	ntaps |= 1 // make odd

	return ntaps
}

// MakeLowPass designs windowed-sinc low-pass taps with unity gain at DC.
func MakeLowPass(gain, sampleRate, cutFrequency, transitionWidth float64, winType WindowType) []float32 {
	nTaps := computeNTaps(sampleRate, transitionWidth, winType)
	taps := make([]float32, nTaps)
	w := windowTaps(winType, nTaps)

	M := (nTaps - 1) / 2
	fwT0 := 2 * math.Pi * cutFrequency / sampleRate

	for i := -M; i <= M; i++ {
		if i == 0 {
			taps[i+M] = float32(fwT0 / math.Pi * float64(w[i+M]))
		} else {
			fi := float64(i)
			taps[i+M] = float32(math.Sin(fi*fwT0) / (fi * math.Pi) * float64(w[i+M]))
		}
	}

	fmax := float64(taps[M])
	for i := 1; i <= M; i++ {
		fmax += 2 * float64(taps[i+M])
	}

	gain /= fmax

	for i := 0; i < nTaps; i++ {
		taps[i] = float32(float64(taps[i]) * gain)
	}

	return taps
}
