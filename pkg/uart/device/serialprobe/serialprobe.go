// Package serialprobe streams raw sample dumps from a logic probe that
// forwards one unsigned 8-bit line sample per byte over a local serial
// port. The probe's port speed is unrelated to the baud rate of the
// signal under observation.
package serialprobe

import (
	"context"
	"fmt"
	"time"

	"github.com/tarm/serial"

	"github.com/wavetap/uartrx/pkg/uart"
)

type ProbeDevice struct {
	port       *serial.Port
	readSize   int
	sampleRate int
}

func NewProbeDevice(portName string, portBaud, readSize, sampleRate int) (*ProbeDevice, error) {
	port, err := serial.OpenPort(&serial.Config{
		Name:        portName,
		Baud:        portBaud,
		ReadTimeout: time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open probe port %s: %w", portName, err)
	}

	return &ProbeDevice{
		port:       port,
		readSize:   readSize,
		sampleRate: sampleRate,
	}, nil
}

func (p *ProbeDevice) Start(ctx context.Context, sampleRate int, samples chan *uart.SegmentFloat32) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		buf := make([]byte, p.readSize)
		n, err := p.port.Read(buf)
		if err != nil {
			return err
		}
		if n == 0 {
			continue
		}

		seg := uart.SegmentU8Raw{
			SampleRate: p.sampleRate,
			Data:       buf[:n],
			Timestamp:  time.Now().UTC(),
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case samples <- seg.ToFloat32():
		}
	}
}

func (p *ProbeDevice) Stop() error {
	return p.port.Close()
}

func (p *ProbeDevice) MaxSampleRate() int {
	// limited by what the probe can push through the port
	return 1e6
}
