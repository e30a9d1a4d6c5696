// Package synth generates serial traffic without hardware: framed
// random bytes with configurable idle gaps, line noise and injected
// faults. Useful for demos and for soaking the decode path.
package synth

import (
	"context"
	"math/rand"
	"time"

	"github.com/wavetap/uartrx/pkg/uart"
	"github.com/wavetap/uartrx/pkg/uart/line"
)

type Options struct {
	Frame       uart.FrameConfig
	Amplitude   float64
	NoiseStddev float64

	// SegmentTicks is the number of samples per emitted segment.
	SegmentTicks int
	Interval     time.Duration

	// Fault injection probabilities, per frame.
	ParityFaultRate  float64
	FramingFaultRate float64
	GlitchRate       float64

	Seed int64
}

type SynthDevice struct {
	opts    Options
	enc     *line.Encoder
	rng     *rand.Rand
	pending []byte
}

func NewSynthDevice(opts Options) (*SynthDevice, error) {
	enc, err := line.NewEncoder(opts.Frame)
	if err != nil {
		return nil, err
	}
	if opts.Amplitude == 0 {
		opts.Amplitude = 1.0
	}
	if opts.SegmentTicks == 0 {
		opts.SegmentTicks = 8192
	}
	if opts.Interval == 0 {
		opts.Interval = 20 * time.Millisecond
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &SynthDevice{
		opts: opts,
		enc:  enc,
		rng:  rand.New(rand.NewSource(seed)),
	}, nil
}

func (s *SynthDevice) fill() {
	tpb := s.opts.Frame.TicksPerBit
	for len(s.pending) < s.opts.SegmentTicks {
		s.pending = append(s.pending, s.enc.Idle(s.rng.Intn(2*tpb))...)

		if s.rng.Float64() < s.opts.GlitchRate {
			width := 1 + s.rng.Intn(tpb/2-1)
			s.pending = append(s.pending, s.enc.Glitch(width)...)
			continue
		}

		var opts []line.FrameOption
		if s.rng.Float64() < s.opts.ParityFaultRate {
			opts = append(opts, line.WithParityInverted())
		}
		if s.rng.Float64() < s.opts.FramingFaultRate {
			opts = append(opts, line.WithStopHeldLow())
		}
		s.pending = append(s.pending, s.enc.Frame(uint16(s.rng.Intn(1<<uint(s.opts.Frame.DataBits))), opts...)...)
	}
}

func (s *SynthDevice) analog(levels []byte) []float32 {
	out := make([]float32, len(levels))
	for i, l := range levels {
		v := -s.opts.Amplitude
		if l == 1 {
			v = s.opts.Amplitude
		}
		out[i] = float32(v + s.rng.NormFloat64()*s.opts.NoiseStddev)
	}
	return out
}

func (s *SynthDevice) Start(ctx context.Context, sampleRate int, samples chan *uart.SegmentFloat32) error {
	tick := time.NewTicker(s.opts.Interval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
			s.fill()
			levels := s.pending[:s.opts.SegmentTicks]
			s.pending = s.pending[s.opts.SegmentTicks:]

			seg := &uart.SegmentFloat32{
				SampleRate: sampleRate,
				Data:       s.analog(levels),
				Timestamp:  time.Now().UTC(),
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case samples <- seg:
			}
		}
	}
}

func (s *SynthDevice) Stop() error {
	return nil
}

func (s *SynthDevice) MaxSampleRate() int {
	return 100e6
}
