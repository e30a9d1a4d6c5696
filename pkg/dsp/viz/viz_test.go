package viz

import (
	"sync"
	"testing"
)

func Test_SpectrumAppendCopiesOversizedInput(t *testing.T) {
	sp := NewSpectrumPlotter("spectrum", 4, 9600)

	// oversized input gets copied, so the caller may reuse its buffer
	src := []float32{1, 2, 3, 4, 5, 6, 7, 8}
	sp.AppendFloat(src)
	for i := range src {
		src[i] = -100
	}

	want := []float32{5, 6, 7, 8}
	for i, v := range want {
		if sp.buf[i] != v {
			t.Fatalf("buf[%d] = %f, want %f (aliased caller buffer)", i, sp.buf[i], v)
		}
	}
}

func Test_TracePlotterConcurrentAppendAndRender(t *testing.T) {
	tp := NewLineTracePlotter("trace", 64)
	tp.AppendFloat(make([]float32, 64))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		levels := make([]byte, 32)
		for i := 0; i < 50; i++ {
			tp.AppendLevels(levels)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 10; i++ {
			if img := tp.GetImage(); img == nil {
				t.Error("no image from a full trace buffer")
			}
		}
	}()
	wg.Wait()
}
