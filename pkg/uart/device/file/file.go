// Package file replays raw logic-probe captures: one unsigned 8-bit
// sample per byte, paced to approximate the original capture rate.
package file

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/wavetap/uartrx/pkg/uart"
)

type FileDevice struct {
	readFile    *os.File
	readSize    int
	timeBetween time.Duration
	sampleRate  int
}

func NewFileDevice(path string, readSize, sampleRate int, timeBetween time.Duration) (*FileDevice, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	return &FileDevice{
		readFile:    f,
		readSize:    readSize,
		timeBetween: timeBetween,
		sampleRate:  sampleRate,
	}, nil
}

func (f *FileDevice) Start(ctx context.Context, sampleRate int, samples chan *uart.SegmentFloat32) error {
	tick := time.NewTicker(f.timeBetween)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
			buf := make([]byte, f.readSize)
			n, err := f.readFile.Read(buf)
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}

			seg := uart.SegmentU8Raw{
				SampleRate: f.sampleRate,
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
}

func (f *FileDevice) Stop() error {
	return f.readFile.Close()
}

func (f *FileDevice) MaxSampleRate() int {
	return 100e6
}
