package line

import (
	"testing"

	"github.com/wavetap/uartrx/pkg/uart"
)

func Test_FrameShape(t *testing.T) {
	cfg := uart.FrameConfig{TicksPerBit: 4, DataBits: 8, Parity: uart.ParityNone, StopBits: 1}
	enc, err := NewEncoder(cfg)
	if err != nil {
		t.Fatal(err)
	}

	// 0x55 on the wire, LSB first: start(0), 1,0,1,0,1,0,1,0, stop(1)
	got := enc.Frame(0x55)
	if len(got) != cfg.FrameTicks() {
		t.Fatalf("frame length %d, want %d", len(got), cfg.FrameTicks())
	}
	wantBits := []byte{0, 1, 0, 1, 0, 1, 0, 1, 0, 1}
	for i, b := range wantBits {
		for j := 0; j < cfg.TicksPerBit; j++ {
			if got[i*cfg.TicksPerBit+j] != b {
				t.Fatalf("tick %d: level %d, want %d", i*cfg.TicksPerBit+j, got[i*cfg.TicksPerBit+j], b)
			}
		}
	}
}

func Test_FrameParityBit(t *testing.T) {
	cfg := uart.FrameConfig{TicksPerBit: 4, DataBits: 8, Parity: uart.ParityEven, StopBits: 1}
	enc, err := NewEncoder(cfg)
	if err != nil {
		t.Fatal(err)
	}

	// 0x07 has odd weight, so even parity transmits 1
	frame := enc.Frame(0x07)
	parityStart := (1 + cfg.DataBits) * cfg.TicksPerBit
	if frame[parityStart] != 1 {
		t.Errorf("parity level = %d, want 1", frame[parityStart])
	}

	inverted := enc.Frame(0x07, WithParityInverted())
	if inverted[parityStart] != 0 {
		t.Errorf("inverted parity level = %d, want 0", inverted[parityStart])
	}
}

func Test_StopHeldLow(t *testing.T) {
	cfg := uart.FrameConfig{TicksPerBit: 4, DataBits: 8, Parity: uart.ParityNone, StopBits: 2}
	enc, err := NewEncoder(cfg)
	if err != nil {
		t.Fatal(err)
	}
	frame := enc.Frame(0x00, WithStopHeldLow())
	for i := len(frame) - 2*cfg.TicksPerBit; i < len(frame); i++ {
		if frame[i] != 0 {
			t.Fatalf("stop tick %d not held low", i)
		}
	}
}

func Test_BytesBackToBack(t *testing.T) {
	cfg := uart.FrameConfig{TicksPerBit: 4, DataBits: 8, Parity: uart.ParityNone, StopBits: 1}
	enc, err := NewEncoder(cfg)
	if err != nil {
		t.Fatal(err)
	}
	got := enc.Bytes([]byte{0x00, 0xff})
	if len(got) != 2*cfg.FrameTicks() {
		t.Fatalf("length %d, want %d", len(got), 2*cfg.FrameTicks())
	}
	// second start bit begins immediately after the first stop bit
	if got[cfg.FrameTicks()] != 0 {
		t.Error("second frame does not start with a start bit")
	}
}
