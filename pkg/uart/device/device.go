package device

import (
	"context"

	"github.com/wavetap/uartrx/pkg/uart"
)

// Device is a source of line samples. Start blocks until the source is
// exhausted or the context is cancelled, sending segments on samples.
type Device interface {
	Start(ctx context.Context, sampleRate int, samples chan *uart.SegmentFloat32) error
	Stop() error
	MaxSampleRate() int
}
