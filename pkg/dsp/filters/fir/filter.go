package fir

// Filter runs a tap set over a float32 stream at the input rate. State
// carries across Work calls so a stream may be fed in segments.
type Filter struct {
	taps    []float32
	history []float32
	last    int
}

func NewFilter(taps []float32) *Filter {
	return &Filter{
		taps:    taps,
		history: make([]float32, len(taps)),
	}
}

func (f *Filter) WorkBuffer(input, output []float32) int {
	n := len(f.taps)
	for i := 0; i < len(input); i++ {
		f.history[f.last] = input[i]
		f.last = (f.last + 1) % n

		var acc float32
		j := f.last
		for k := 0; k < n; k++ {
			acc += f.taps[n-1-k] * f.history[j]
			j = (j + 1) % n
		}
		output[i] = acc
	}
	return len(input)
}

func (f *Filter) Work(input []float32) []float32 {
	output := make([]float32, len(input))
	f.WorkBuffer(input, output)
	return output
}

func (f *Filter) PredictOutputSize(inputSize int) int {
	return inputSize
}

func (f *Filter) Reset() {
	for i := range f.history {
		f.history[i] = 0
	}
	f.last = 0
}
