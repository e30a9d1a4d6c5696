package rmsagc

import (
	"math"
	"testing"
)

func Test_RMSAGCNormalizesWeakCapture(t *testing.T) {
	agc := NewRMSAGC(0.01, 1.0)

	// a weak square wave settles toward unit amplitude
	input := make([]float32, 4096)
	for i := range input {
		if (i/16)%2 == 0 {
			input[i] = 0.05
		} else {
			input[i] = -0.05
		}
	}
	out := agc.Work(input)

	tail := out[len(out)-64:]
	for i, v := range tail {
		if a := math.Abs(float64(v)); a < 0.8 || a > 1.2 {
			t.Fatalf("tail[%d] = %f, want magnitude near 1.0", i, v)
		}
	}
}

func Test_RMSAGCPreservesSign(t *testing.T) {
	agc := NewRMSAGC(0.1, 1.0)
	out := agc.Work([]float32{0.2, -0.2, 0.2, -0.2})
	for i, v := range out {
		want := i%2 == 0
		if (v > 0) != want {
			t.Errorf("output[%d] = %f, sign flipped", i, v)
		}
	}
}
