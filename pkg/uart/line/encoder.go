// Package line synthesizes per-tick serial waveforms for a given frame
// configuration. It is the stimulus side of the receiver: devices and
// tests use it to put framed bytes, idle spans and line faults on the
// wire.
package line

import (
	"github.com/wavetap/uartrx/pkg/uart"
)

type frameOpts struct {
	invertParity bool
	stopLow      bool
}

type FrameOption func(*frameOpts)

// WithParityInverted transmits the complement of the correct parity bit.
func WithParityInverted() FrameOption {
	return func(o *frameOpts) {
		o.invertParity = true
	}
}

// WithStopHeldLow holds every stop bit low instead of high.
func WithStopHeldLow() FrameOption {
	return func(o *frameOpts) {
		o.stopLow = true
	}
}

type Encoder struct {
	cfg uart.FrameConfig
}

func NewEncoder(cfg uart.FrameConfig) (*Encoder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Encoder{cfg: cfg}, nil
}

func (e *Encoder) Config() uart.FrameConfig {
	return e.cfg
}

// Idle returns ticks samples of the line at rest (high).
func (e *Encoder) Idle(ticks int) []byte {
	out := make([]byte, ticks)
	for i := range out {
		out[i] = 1
	}
	return out
}

// Glitch returns a low pulse of the given width followed by enough idle
// to let a receiver fall back to rest. Widths below half a bit period
// are what a receiver should reject as noise.
func (e *Encoder) Glitch(width int) []byte {
	out := make([]byte, width+e.cfg.TicksPerBit)
	for i := width; i < len(out); i++ {
		out[i] = 1
	}
	return out
}

func (e *Encoder) appendBit(dst []byte, level byte) []byte {
	for i := 0; i < e.cfg.TicksPerBit; i++ {
		dst = append(dst, level)
	}
	return dst
}

// Frame encodes one framed word: start bit, data bits LSB-first, the
// parity bit when enabled, and the configured stop bits.
func (e *Encoder) Frame(data uint16, opts ...FrameOption) []byte {
	var o frameOpts
	for _, opt := range opts {
		opt(&o)
	}

	out := make([]byte, 0, e.cfg.FrameTicks())
	out = e.appendBit(out, 0)
	for i := 0; i < e.cfg.DataBits; i++ {
		out = e.appendBit(out, byte(data>>uint(i))&1)
	}
	if e.cfg.Parity.Enabled() {
		bit := e.cfg.ParityBit(data)
		if o.invertParity {
			bit ^= 1
		}
		out = e.appendBit(out, bit)
	}
	stop := byte(1)
	if o.stopLow {
		stop = 0
	}
	for i := 0; i < e.cfg.StopBits; i++ {
		out = e.appendBit(out, stop)
	}
	return out
}

// Bytes encodes a run of bytes back to back with no idle gap.
func (e *Encoder) Bytes(data []byte) []byte {
	out := make([]byte, 0, len(data)*e.cfg.FrameTicks())
	for _, b := range data {
		out = append(out, e.Frame(uint16(b))...)
	}
	return out
}
