package fir

import (
	"math"
	"testing"
)

func Test_FilterImpulseResponse(t *testing.T) {
	taps := []float32{0.25, 0.5, 0.25}
	f := NewFilter(taps)

	input := []float32{1, 0, 0, 0, 0}
	got := f.Work(input)
	want := []float32{0.25, 0.5, 0.25, 0, 0}
	for i := range want {
		if math.Abs(float64(got[i]-want[i])) > 1e-6 {
			t.Errorf("impulse response[%d] = %f, want %f", i, got[i], want[i])
		}
	}
}

func Test_FilterStateAcrossSegments(t *testing.T) {
	taps := []float32{0.25, 0.5, 0.25}

	whole := NewFilter(taps)
	split := NewFilter(taps)

	input := []float32{1, -1, 0.5, 0.25, -0.75, 0, 1}
	want := whole.Work(input)

	got := append(split.Work(input[:3]), split.Work(input[3:])...)
	for i := range want {
		if math.Abs(float64(got[i]-want[i])) > 1e-6 {
			t.Errorf("segmented output[%d] = %f, want %f", i, got[i], want[i])
		}
	}
}

func Test_MakeLowPassDCGain(t *testing.T) {
	taps := MakeLowPass(1.0, 48000, 4800, 2400, Hamming)
	if len(taps)%2 != 1 {
		t.Fatalf("tap count %d not odd", len(taps))
	}
	var sum float64
	for _, tap := range taps {
		sum += float64(tap)
	}
	if math.Abs(sum-1.0) > 1e-3 {
		t.Errorf("DC gain = %f, want 1.0", sum)
	}
}

func Test_FrequencyResponse(t *testing.T) {
	taps := MakeLowPass(1.0, 48000, 4800, 2400, Hamming)

	resp := FrequencyResponse(taps, 256)
	if math.Abs(resp[0]-1.0) > 1e-2 {
		t.Errorf("passband response at DC = %f, want 1.0", resp[0])
	}

	// stopband starts past cut + transition: 7200/48000 = 0.15
	if peak := StopbandPeak(taps, 0.2); peak > 0.01 {
		t.Errorf("stopband peak = %f, want < 0.01", peak)
	}
}

func Test_MakeLowPassRejectsStopband(t *testing.T) {
	sampleRate := 48000.0
	taps := MakeLowPass(1.0, sampleRate, 2000, 1000, Hamming)
	f := NewFilter(taps)

	// a tone well into the stopband should be strongly attenuated
	n := len(taps) * 4
	input := make([]float32, n)
	for i := range input {
		input[i] = float32(math.Sin(2 * math.Pi * 10000 * float64(i) / sampleRate))
	}
	out := f.Work(input)

	var peak float64
	for _, v := range out[len(taps):] {
		if a := math.Abs(float64(v)); a > peak {
			peak = a
		}
	}
	if peak > 0.05 {
		t.Errorf("stopband peak %f, want < 0.05", peak)
	}
}
