package uart

import "fmt"

// DefaultMaxBaudError is the divider truncation tolerance used when the
// caller does not supply one.
const DefaultMaxBaudError = 0.05

// FrameConfig fixes the wire format of a receiver instance. It is set at
// construction and never mutated.
type FrameConfig struct {
	// TicksPerBit is the oversampling ratio: receiver clock ticks per bit period.
	TicksPerBit int
	DataBits    int
	Parity      Parity
	StopBits    int
}

func (c FrameConfig) Validate() error {
	if c.TicksPerBit < 4 {
		return fmt.Errorf("ticks per bit %d too low, need at least 4 for midpoint sampling", c.TicksPerBit)
	}
	if c.DataBits < 5 || c.DataBits > 9 {
		return fmt.Errorf("data bits must be 5..9, got %d", c.DataBits)
	}
	if !c.Parity.Valid() {
		return fmt.Errorf("unknown parity mode %q", c.Parity)
	}
	if c.StopBits < 1 || c.StopBits > 2 {
		return fmt.Errorf("stop bits must be 1 or 2, got %d", c.StopBits)
	}
	return nil
}

// FrameBits returns the number of bit periods in a full frame,
// including start, parity and stop bits.
func (c FrameConfig) FrameBits() int {
	n := 1 + c.DataBits + c.StopBits
	if c.Parity.Enabled() {
		n++
	}
	return n
}

// FrameTicks returns the number of clock ticks spanning a full frame.
func (c FrameConfig) FrameTicks() int {
	return c.FrameBits() * c.TicksPerBit
}

// ParityBit computes the expected parity bit over the low dataBits bits
// of data. Even parity makes the total count of ones even.
func (c FrameConfig) ParityBit(data uint16) byte {
	var ones int
	for i := 0; i < c.DataBits; i++ {
		if data&(1<<uint(i)) != 0 {
			ones++
		}
	}
	bit := byte(ones & 1)
	if c.Parity == ParityOdd {
		bit ^= 1
	}
	return bit
}

// FrameConfigFor derives a validated FrameConfig from a clock frequency
// and baud rate, using ClockDivider to fix the oversampling ratio.
func FrameConfigFor(clockFreq, baudRate, dataBits int, parity Parity, stopBits int, maxErr float64) (FrameConfig, error) {
	div, err := ClockDivider(clockFreq, baudRate, maxErr)
	if err != nil {
		return FrameConfig{}, err
	}
	cfg := FrameConfig{
		TicksPerBit: div,
		DataBits:    dataBits,
		Parity:      parity,
		StopBits:    stopBits,
	}
	if err := cfg.Validate(); err != nil {
		return FrameConfig{}, err
	}
	return cfg, nil
}
