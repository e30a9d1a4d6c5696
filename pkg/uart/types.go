package uart

import "time"

// Parity selects the parity bit mode for a frame.
type Parity string

const (
	ParityNone Parity = "none"
	ParityEven Parity = "even"
	ParityOdd  Parity = "odd"
)

func (p Parity) Valid() bool {
	switch p {
	case ParityNone, ParityEven, ParityOdd:
		return true
	}
	return false
}

// Enabled reports whether a parity bit is present on the wire.
func (p Parity) Enabled() bool {
	return p == ParityEven || p == ParityOdd
}

// Frame is one decoded reception. Data is valid on the single tick the
// frame is emitted; FramingError and ParityError apply to this frame only.
type Frame struct {
	Data         uint16
	FramingError bool
	ParityError  bool

	// Tick is the receiver tick on which the frame was emitted,
	// counted from the first sample the receiver ever consumed.
	Tick uint64
}

// Byte returns the low 8 bits of the decoded word.
func (f Frame) Byte() byte {
	return byte(f.Data & 0xff)
}

// SegmentFloat32 is a run of line samples at a fixed sample rate.
type SegmentFloat32 struct {
	SampleRate int
	Data       []float32
	Timestamp  time.Time
}

// SegmentU8Raw is a raw capture segment of unsigned 8-bit samples,
// as produced by logic-probe dumps.
type SegmentU8Raw struct {
	SampleRate int
	Data       []byte
	Timestamp  time.Time
}

// ToFloat32 maps unsigned 8-bit samples onto [-1.0, 1.0).
func (s SegmentU8Raw) ToFloat32() *SegmentFloat32 {
	out := &SegmentFloat32{
		SampleRate: s.SampleRate,
		Data:       make([]float32, len(s.Data)),
		Timestamp:  s.Timestamp,
	}
	for i, b := range s.Data {
		out.Data[i] = (float32(b) - 127.5) / 127.5
	}
	return out
}
