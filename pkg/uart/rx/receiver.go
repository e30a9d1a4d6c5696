package rx

import (
	"github.com/wavetap/uartrx/pkg/uart"
)

type state int

const (
	stateIdle state = iota
	stateStart
	stateData
	stateParity
	stateStop
)

// Stats are cumulative receiver counters since construction or Reset.
type Stats struct {
	Frames        uint64
	FramingErrors uint64
	ParityErrors  uint64
	Glitches      uint64
}

// Receiver reconstructs bytes from a serial line sampled once per clock
// tick. Input levels are bytes with value 0 or 1, one level per tick.
// Bits are sampled at the midpoint of their bit period: the start edge
// arms a half-period timer, and every subsequent sample point is one
// full bit period after the previous one.
//
// A low pulse shorter than half a bit period never reaches the first
// sample point with the line still low, so it is rejected in the Start
// state and the receiver returns to Idle without emitting anything.
type Receiver struct {
	cfg uart.FrameConfig

	state     state
	timer     int
	shift     uint16
	bitIdx    int
	stopIdx   int
	framing   bool
	parity    bool
	lastLevel byte
	tick      uint64

	pending    uart.Frame
	hasPending bool

	stats Stats
}

func NewReceiver(cfg uart.FrameConfig) (*Receiver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Receiver{
		cfg:       cfg,
		state:     stateIdle,
		lastLevel: 1, // line idles high
	}, nil
}

func (r *Receiver) Config() uart.FrameConfig {
	return r.cfg
}

func (r *Receiver) Stats() Stats {
	return r.stats
}

// step consumes one line level and reports whether a frame was emitted
// on this tick. A frame is emitted exactly one tick after the final
// stop-bit sample point.
func (r *Receiver) step(level byte) (uart.Frame, bool) {
	if level != 0 {
		level = 1
	}

	emitted := false
	var out uart.Frame
	if r.hasPending {
		out = r.pending
		out.Tick = r.tick
		r.hasPending = false
		emitted = true
	}

	switch r.state {
	case stateIdle:
		if r.lastLevel == 1 && level == 0 {
			r.state = stateStart
			r.timer = r.cfg.TicksPerBit / 2
		}

	case stateStart:
		r.timer--
		if r.timer == 0 {
			if level == 0 {
				r.state = stateData
				r.timer = r.cfg.TicksPerBit
				r.shift = 0
				r.bitIdx = 0
				r.stopIdx = 0
				r.framing = false
				r.parity = false
			} else {
				// line came back up before the midpoint: noise, not a frame
				r.stats.Glitches++
				r.state = stateIdle
			}
		}

	case stateData:
		r.timer--
		if r.timer == 0 {
			if level == 1 {
				r.shift |= 1 << uint(r.bitIdx)
			}
			r.bitIdx++
			r.timer = r.cfg.TicksPerBit
			if r.bitIdx == r.cfg.DataBits {
				if r.cfg.Parity.Enabled() {
					r.state = stateParity
				} else {
					r.state = stateStop
				}
			}
		}

	case stateParity:
		r.timer--
		if r.timer == 0 {
			if level != r.cfg.ParityBit(r.shift) {
				r.parity = true
			}
			r.state = stateStop
			r.timer = r.cfg.TicksPerBit
		}

	case stateStop:
		r.timer--
		if r.timer == 0 {
			if level == 0 {
				r.framing = true
			}
			r.stopIdx++
			if r.stopIdx == r.cfg.StopBits {
				r.pending = uart.Frame{
					Data:         r.shift,
					FramingError: r.framing,
					ParityError:  r.parity,
				}
				r.hasPending = true
				r.stats.Frames++
				if r.framing {
					r.stats.FramingErrors++
				}
				if r.parity {
					r.stats.ParityErrors++
				}
				r.state = stateIdle
			} else {
				r.timer = r.cfg.TicksPerBit
			}
		}
	}

	r.lastLevel = level
	r.tick++
	return out, emitted
}

// WorkBuffer consumes one level per input byte and writes decoded frames
// into output, returning the number of frames produced. output must hold
// at least PredictOutputSize(len(input)) entries.
func (r *Receiver) WorkBuffer(input []byte, output []uart.Frame) int {
	n := 0
	for i := 0; i < len(input); i++ {
		if frame, ok := r.step(input[i]); ok {
			output[n] = frame
			n++
		}
	}
	return n
}

func (r *Receiver) Work(input []byte) []uart.Frame {
	output := make([]uart.Frame, r.PredictOutputSize(len(input)))
	n := r.WorkBuffer(input, output)
	return output[:n]
}

func (r *Receiver) PredictOutputSize(inputSize int) int {
	return inputSize/r.cfg.FrameTicks() + 1
}

// Reset returns the receiver to Idle and clears all counters. The tick
// counter is preserved so frame timestamps stay monotonic.
func (r *Receiver) Reset() {
	r.state = stateIdle
	r.timer = 0
	r.shift = 0
	r.bitIdx = 0
	r.stopIdx = 0
	r.framing = false
	r.parity = false
	r.lastLevel = 1
	r.hasPending = false
	r.stats = Stats{}
}
