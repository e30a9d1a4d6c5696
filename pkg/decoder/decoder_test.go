package decoder

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wavetap/uartrx/pkg/uart"
	"github.com/wavetap/uartrx/pkg/uart/line"
)

// stubDevice feeds pre-built segments and then reports a drained source.
type stubDevice struct {
	segments []*uart.SegmentFloat32
}

func (s *stubDevice) Start(ctx context.Context, sampleRate int, samples chan *uart.SegmentFloat32) error {
	for _, seg := range s.segments {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case samples <- seg:
		}
	}
	return nil
}

func (s *stubDevice) Stop() error { return nil }

func (s *stubDevice) MaxSampleRate() int { return 100e6 }

func analogFromLevels(levels []byte) []float32 {
	out := make([]float32, len(levels))
	for i, l := range levels {
		if l == 1 {
			out[i] = 1.0
		} else {
			out[i] = -1.0
		}
	}
	return out
}

func Test_DecoderEndToEnd(t *testing.T) {
	cfg := uart.FrameConfig{TicksPerBit: 8, DataBits: 8, Parity: uart.ParityNone, StopBits: 1}
	sampleRate := 9600 * cfg.TicksPerBit

	enc, err := line.NewEncoder(cfg)
	require.NoError(t, err)

	levels := enc.Idle(32)
	levels = append(levels, enc.Bytes([]byte("hello"))...)
	levels = append(levels, enc.Idle(32)...)

	dev := &stubDevice{segments: []*uart.SegmentFloat32{{
		SampleRate: sampleRate,
		Data:       analogFromLevels(levels),
	}}}

	var out bytes.Buffer
	var mu sync.Mutex
	var seen []uart.Frame

	d, err := NewDecoder(dev,
		Options{
			SampleRate: sampleRate,
			Frame:      cfg,
		},
		WithOutput(&out),
		WithFrameHandler(func(f uart.Frame) {
			mu.Lock()
			seen = append(seen, f)
			mu.Unlock()
		}))
	require.NoError(t, err)

	require.NoError(t, d.Start(context.Background()))

	require.Equal(t, "hello", out.String())
	require.Len(t, seen, 5)
	require.EqualValues(t, 5, d.Stats().Frames)
	require.EqualValues(t, 0, d.Stats().FramingErrors)
}

func Test_DecoderReportsFrameErrors(t *testing.T) {
	cfg := uart.FrameConfig{TicksPerBit: 8, DataBits: 8, Parity: uart.ParityEven, StopBits: 1}
	sampleRate := 9600 * cfg.TicksPerBit

	enc, err := line.NewEncoder(cfg)
	require.NoError(t, err)

	levels := enc.Idle(16)
	levels = append(levels, enc.Frame(0x21, line.WithParityInverted())...)
	levels = append(levels, enc.Frame(0x42, line.WithStopHeldLow())...)
	levels = append(levels, enc.Idle(2*cfg.TicksPerBit)...)
	levels = append(levels, enc.Frame(0x63)...)
	levels = append(levels, enc.Idle(16)...)

	dev := &stubDevice{segments: []*uart.SegmentFloat32{{
		SampleRate: sampleRate,
		Data:       analogFromLevels(levels),
	}}}

	var seen []uart.Frame
	d, err := NewDecoder(dev,
		Options{SampleRate: sampleRate, Frame: cfg},
		WithOutput(&bytes.Buffer{}),
		WithFrameHandler(func(f uart.Frame) { seen = append(seen, f) }))
	require.NoError(t, err)
	require.NoError(t, d.Start(context.Background()))

	require.Len(t, seen, 3)
	require.True(t, seen[0].ParityError)
	require.False(t, seen[0].FramingError)
	require.True(t, seen[1].FramingError)
	require.False(t, seen[2].ParityError)
	require.False(t, seen[2].FramingError)
	require.EqualValues(t, 1, d.Stats().ParityErrors)
	require.EqualValues(t, 1, d.Stats().FramingErrors)
}

func Test_DecoderHexOutput(t *testing.T) {
	cfg := uart.FrameConfig{TicksPerBit: 4, DataBits: 8, Parity: uart.ParityNone, StopBits: 1}
	sampleRate := 9600 * cfg.TicksPerBit

	enc, err := line.NewEncoder(cfg)
	require.NoError(t, err)

	levels := enc.Idle(8)
	levels = append(levels, enc.Bytes([]byte{0xde, 0xad})...)
	levels = append(levels, enc.Idle(8)...)

	dev := &stubDevice{segments: []*uart.SegmentFloat32{{
		SampleRate: sampleRate,
		Data:       analogFromLevels(levels),
	}}}

	var out bytes.Buffer
	d, err := NewDecoder(dev,
		Options{SampleRate: sampleRate, Frame: cfg, HexOutput: true},
		WithOutput(&out))
	require.NoError(t, err)
	require.NoError(t, d.Start(context.Background()))

	require.Equal(t, "de ad ", out.String())
}

func Test_DecoderRejectsMissingSampleRate(t *testing.T) {
	cfg := uart.FrameConfig{TicksPerBit: 4, DataBits: 8, Parity: uart.ParityNone, StopBits: 1}
	_, err := NewDecoder(&stubDevice{}, Options{Frame: cfg})
	require.Error(t, err)
}
