package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/wavetap/uartrx/pkg/dsp/slicer"
	"github.com/wavetap/uartrx/pkg/uart"
	"github.com/wavetap/uartrx/pkg/uart/line"
	"github.com/wavetap/uartrx/pkg/uart/rx"
)

func Test_FileDeviceReplaysCapture(t *testing.T) {
	cfg := uart.FrameConfig{TicksPerBit: 8, DataBits: 8, Parity: uart.ParityNone, StopBits: 1}

	enc, err := line.NewEncoder(cfg)
	if err != nil {
		t.Fatal(err)
	}

	payload := []byte{0xc0, 0xff, 0xee}
	levels := enc.Idle(32)
	levels = append(levels, enc.Bytes(payload)...)
	levels = append(levels, enc.Idle(32)...)

	// u8 capture format: one sample per byte, rail to rail
	capture := make([]byte, len(levels))
	for i, l := range levels {
		if l == 1 {
			capture[i] = 255
		}
	}

	path := filepath.Join(t.TempDir(), "capture.u8")
	if err := os.WriteFile(path, capture, 0644); err != nil {
		t.Fatal(err)
	}

	dev, err := NewFileDevice(path, 64, 76800, time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	defer dev.Stop()

	ch := make(chan *uart.SegmentFloat32, 16)
	done := make(chan error, 1)
	go func() {
		done <- dev.Start(context.Background(), 76800, ch)
	}()

	r, err := rx.NewReceiver(cfg)
	if err != nil {
		t.Fatal(err)
	}
	sl := slicer.NewLevelSlicer(0, false)

	var decoded []byte
	process := func(seg *uart.SegmentFloat32) {
		for _, f := range r.Work(sl.Work(seg.Data)) {
			if f.FramingError || f.ParityError {
				t.Errorf("unexpected frame error: %+v", f)
			}
			decoded = append(decoded, f.Byte())
		}
	}

	for {
		select {
		case seg := <-ch:
			process(seg)
		case err := <-done:
			if err != nil {
				t.Fatal(err)
			}
			// drain anything queued before the source reported EOF
			for {
				select {
				case seg := <-ch:
					process(seg)
				default:
					if string(decoded) != string(payload) {
						t.Errorf("decoded % 02x, want % 02x", decoded, payload)
					}
					return
				}
			}
		case <-time.After(5 * time.Second):
			t.Fatal("timed out replaying capture")
		}
	}
}
