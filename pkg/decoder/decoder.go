// Package decoder wires a sample source to the line-decoding pipeline
// and fans decoded frames out to an output writer, an optional frame
// handler, and metrics.
package decoder

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go"
	"github.com/influxdata/influxdb-client-go/api"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/wavetap/uartrx/pkg/dsp/agc/rmsagc"
	"github.com/wavetap/uartrx/pkg/dsp/filters/fir"
	"github.com/wavetap/uartrx/pkg/dsp/processor"
	"github.com/wavetap/uartrx/pkg/dsp/slicer"
	"github.com/wavetap/uartrx/pkg/dsp/viz"
	"github.com/wavetap/uartrx/pkg/uart"
	"github.com/wavetap/uartrx/pkg/uart/device"
	"github.com/wavetap/uartrx/pkg/uart/rx"
	"github.com/wavetap/uartrx/pkg/util"
)

type LowPassOptions struct {
	CutFrequency    float64
	TransitionWidth float64
}

type AGCOptions struct {
	Alpha float64
	Gain  float64
}

type Options struct {
	SampleRate      int
	Frame           uart.FrameConfig
	SlicerThreshold float64
	SlicerInvert    bool
	AGC             *AGCOptions
	LowPass         *LowPassOptions

	// HexOutput renders decoded bytes as spaced hex with line breaks;
	// otherwise raw bytes are written as-is.
	HexOutput bool
}

// FrameHandler observes each decoded frame as it is produced. Frames
// are delivered synchronously; there is no buffering between the
// receiver and the handler.
type FrameHandler func(uart.Frame)

type Decoder struct {
	device     device.Device
	opts       Options
	writeAPI   api.WriteAPI
	vizServer  *viz.Server
	logger     zerolog.Logger
	output     io.Writer
	handler    FrameHandler
	proc       *processor.Processor
	receiver   *rx.Receiver
	sampleChan chan *uart.SegmentFloat32
	lastStats  rx.Stats
	hexCount   int

	cancel context.CancelFunc
	ctx    context.Context
}

type DecoderOption func(d *Decoder) error

func WithInfluxDB(writeAPI api.WriteAPI) DecoderOption {
	return func(d *Decoder) error {
		d.writeAPI = writeAPI
		return nil
	}
}

func WithVizServer(vizServer *viz.Server) DecoderOption {
	return func(d *Decoder) error {
		d.vizServer = vizServer
		return nil
	}
}

func WithLogger(logger zerolog.Logger) DecoderOption {
	return func(d *Decoder) error {
		d.logger = logger
		return nil
	}
}

func WithOutput(w io.Writer) DecoderOption {
	return func(d *Decoder) error {
		d.output = w
		return nil
	}
}

func WithFrameHandler(h FrameHandler) DecoderOption {
	return func(d *Decoder) error {
		d.handler = h
		return nil
	}
}

func NewDecoder(dev device.Device, options Options, opts ...DecoderOption) (*Decoder, error) {
	d := &Decoder{
		device:     dev,
		opts:       options,
		writeAPI:   &util.MockWriteAPI{}, // overwritten with option
		output:     os.Stdout,
		logger:     log.Logger,
		sampleChan: make(chan *uart.SegmentFloat32, 1),
	}

	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}

	if d.opts.SampleRate == 0 {
		return nil, fmt.Errorf("must specify sample rate")
	}

	receiver, err := rx.NewReceiver(d.opts.Frame)
	if err != nil {
		return nil, err
	}
	d.receiver = receiver

	d.proc = processor.NewProcessor("uart-decode", "Line Input", d.vizServer)
	if d.opts.AGC != nil {
		d.proc.AddBlock(processor.NewWorkerFF("agc", "RMS AGC",
			d.opts.SampleRate, d.opts.SampleRate,
			rmsagc.NewRMSAGC(d.opts.AGC.Alpha, d.opts.AGC.Gain)))
	}
	if d.opts.LowPass != nil {
		taps := fir.MakeLowPass(1.0, float64(d.opts.SampleRate),
			d.opts.LowPass.CutFrequency, d.opts.LowPass.TransitionWidth, fir.Hamming)
		d.proc.AddBlock(processor.NewWorkerFF("lowpass", "Low Pass",
			d.opts.SampleRate, d.opts.SampleRate, fir.NewFilter(taps)))
	}
	d.proc.AddBlock(processor.NewWorkerFL("slicer", "Slicer",
		d.opts.SampleRate, d.opts.SampleRate,
		slicer.NewLevelSlicer(float32(d.opts.SlicerThreshold), d.opts.SlicerInvert)))
	d.proc.AddBlock(processor.NewWorkerLF("receiver", "UART RX",
		d.opts.SampleRate, d.opts.SampleRate, receiver))
	if err := d.proc.Initialize(); err != nil {
		return nil, err
	}

	return d, nil
}

func (d *Decoder) Stats() rx.Stats {
	return d.receiver.Stats()
}

func (d *Decoder) Stop() error {
	if d.cancel != nil {
		d.cancel()
	}
	if d.vizServer != nil {
		d.vizServer.Stop(context.TODO())
	}
	return d.device.Stop()
}

func (d *Decoder) Start(ctx context.Context) error {
	if d.opts.SampleRate > d.device.MaxSampleRate() {
		return fmt.Errorf("error: sample rate %d > device max sample rate %d", d.opts.SampleRate, d.device.MaxSampleRate())
	}

	eg, ctx := errgroup.WithContext(ctx)
	d.ctx, d.cancel = context.WithCancel(ctx)

	eg.Go(func() error {
		err := d.device.Start(d.ctx, d.opts.SampleRate, d.sampleChan)
		if err == nil || err == context.Canceled {
			// source drained cleanly, wind down the consumer
			d.cancel()
			return nil
		}
		return err
	})

	eg.Go(func() error {
		for {
			select {
			case <-d.ctx.Done():
				// drain whatever the source managed to queue
				for {
					select {
					case seg := <-d.sampleChan:
						if err := d.processSegment(seg); err != nil {
							return err
						}
					default:
						return d.ctx.Err()
					}
				}
			case seg := <-d.sampleChan:
				if err := d.processSegment(seg); err != nil {
					return err
				}
			}
		}
	})

	err := eg.Wait()
	if err == context.Canceled {
		return nil
	}
	return err
}

func (d *Decoder) processSegment(seg *uart.SegmentFloat32) error {
	start := time.Now()
	metrics := map[string]interface{}{
		"sample_length": len(seg.Data),
	}

	defer func() {
		metrics["duration"] = time.Since(start).Microseconds()

		go d.writeAPI.WritePoint(influxdb2.NewPoint("uart.segment.processed",
			map[string]string{
				"parity":    string(d.opts.Frame.Parity),
				"data_bits": strconv.Itoa(d.opts.Frame.DataBits),
			},
			metrics, start))
	}()

	frames, err := d.proc.ProcessFloatToFrames(seg, metrics)
	if err != nil {
		return err
	}

	stats := d.receiver.Stats()
	metrics["frames"] = len(frames)
	metrics["framing_errors"] = stats.FramingErrors - d.lastStats.FramingErrors
	metrics["parity_errors"] = stats.ParityErrors - d.lastStats.ParityErrors
	metrics["glitches"] = stats.Glitches - d.lastStats.Glitches
	d.lastStats = stats

	for _, frame := range frames {
		if frame.FramingError || frame.ParityError {
			d.logger.Debug().
				Uint64("tick", frame.Tick).
				Bool("framing", frame.FramingError).
				Bool("parity", frame.ParityError).
				Uint8("data", frame.Byte()).
				Msg("frame error")
		}

		if d.handler != nil {
			d.handler(frame)
		}

		if err := d.writeFrame(frame); err != nil {
			return err
		}
	}

	return nil
}

func (d *Decoder) writeFrame(frame uart.Frame) error {
	if !d.opts.HexOutput {
		_, err := d.output.Write([]byte{frame.Byte()})
		return err
	}

	sep := " "
	d.hexCount++
	if d.hexCount%16 == 0 {
		sep = "\n"
	}
	_, err := fmt.Fprintf(d.output, "%02x%s", frame.Byte(), sep)
	return err
}
