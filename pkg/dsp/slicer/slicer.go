package slicer

// LevelSlicer converts float32 line samples into logic levels. Samples
// at or above the threshold map to 1, below to 0. Invert flips the
// decision for captures taken through an inverting probe.
type LevelSlicer struct {
	threshold float32
	invert    bool
}

func NewLevelSlicer(threshold float32, invert bool) *LevelSlicer {
	return &LevelSlicer{
		threshold: threshold,
		invert:    invert,
	}
}

func (s *LevelSlicer) slice(f float32) byte {
	level := byte(0)
	if f >= s.threshold {
		level = 1
	}
	if s.invert {
		level ^= 1
	}
	return level
}

func (s *LevelSlicer) WorkBuffer(input []float32, output []byte) int {
	for i := 0; i < len(input); i++ {
		output[i] = s.slice(input[i])
	}
	return len(input)
}

func (s *LevelSlicer) Work(items []float32) []byte {
	ret := make([]byte, len(items))
	s.WorkBuffer(items, ret)
	return ret
}

func (s *LevelSlicer) PredictOutputSize(inputSize int) int {
	return inputSize
}
