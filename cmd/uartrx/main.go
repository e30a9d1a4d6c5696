package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v2"

	influxdb2 "github.com/influxdata/influxdb-client-go"
	"golang.org/x/sync/errgroup"

	"github.com/wavetap/uartrx/pkg/decoder"
	"github.com/wavetap/uartrx/pkg/dsp/viz"
	"github.com/wavetap/uartrx/pkg/uart/config"
	"github.com/wavetap/uartrx/pkg/uart/device"
	fileDevice "github.com/wavetap/uartrx/pkg/uart/device/file"
	"github.com/wavetap/uartrx/pkg/uart/device/serialprobe"
	"github.com/wavetap/uartrx/pkg/uart/device/synth"
)

const (
	fileReadSize  = 65536
	fileReadDelay = time.Millisecond * 16
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.InfoLevel)
	configFile := flag.String("config", "uartrx.yaml", "YAML config file")

	flag.Parse()
	if configFile == nil {
		flag.Usage()
		os.Exit(1)
	}

	configContents, err := os.ReadFile(*configFile)
	if err != nil {
		log.Fatal().Err(err).Msg("error reading config file")
	}
	var opts config.Config
	if err := yaml.Unmarshal(configContents, &opts); err != nil {
		log.Fatal().Err(err).Msg("error unmarshaling yaml file")
	}

	frameConfig, err := opts.FrameConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid frame configuration")
	}

	readSize := opts.ReadSize
	if readSize == 0 {
		readSize = fileReadSize
	}

	var dev device.Device

	switch opts.Device {
	case "file":
		log.Info().Str("device", "file").Str("path", opts.PlaybackLocation).Msg("initializing device...")
		dev, err = fileDevice.NewFileDevice(opts.PlaybackLocation, readSize, opts.ClockFreq, fileReadDelay)
		if err != nil {
			log.Fatal().Str("device", "file").Err(err).Msg("failed to open capture file")
		}
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	case "serial":
		log.Info().Str("device", "serial").Str("port", opts.Serial.Port).Msg("initializing device...")
		dev, err = serialprobe.NewProbeDevice(opts.Serial.Port, opts.Serial.Baud, readSize, opts.ClockFreq)
		if err != nil {
			log.Fatal().Str("device", "serial").Err(err).Msg("failed to open probe port")
		}
	default:
		log.Info().Str("device", "synth").Msg("initializing device...")
		dev, err = synth.NewSynthDevice(synth.Options{
			Frame:            frameConfig,
			NoiseStddev:      opts.Synth.NoiseStddev,
			ParityFaultRate:  opts.Synth.ParityFaultRate,
			FramingFaultRate: opts.Synth.FramingFaultRate,
			GlitchRate:       opts.Synth.GlitchRate,
			Seed:             opts.Synth.Seed,
		})
		if err != nil {
			log.Fatal().Str("device", "synth").Err(err).Msg("failed to create traffic generator")
		}
	}

	vizServer := viz.NewServer(opts.VizServer.Port, opts.VizServer.UpdateInterval)

	influxWriteAPI := influxdb2.NewClient(opts.InfluxDB.Host, "").WriteAPI(opts.InfluxDB.Organization, opts.InfluxDB.Bucket)

	var agc *decoder.AGCOptions
	if opts.AGC.Enabled {
		agc = &decoder.AGCOptions{
			Alpha: opts.AGC.Alpha,
			Gain:  opts.AGC.Gain,
		}
	}

	var lowPass *decoder.LowPassOptions
	if opts.LowPass.Enabled {
		lowPass = &decoder.LowPassOptions{
			CutFrequency:    opts.LowPass.CutFrequency,
			TransitionWidth: opts.LowPass.TransitionWidth,
		}
	}

	dec, err := decoder.NewDecoder(dev,
		decoder.Options{
			SampleRate:      opts.ClockFreq,
			Frame:           frameConfig,
			SlicerThreshold: opts.Slicer.Threshold,
			SlicerInvert:    opts.Slicer.Invert,
			AGC:             agc,
			LowPass:         lowPass,
			HexOutput:       opts.Output != "raw",
		},
		decoder.WithInfluxDB(influxWriteAPI),
		decoder.WithVizServer(vizServer),
		decoder.WithLogger(log.Logger))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create decoder")
	}

	eg, ctx := errgroup.WithContext(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	eg.Go(func() error {

		select {
		case <-sigChan:
		case <-ctx.Done():
		}

		return dec.Stop()
	})

	if opts.VizServer.Port != 0 {
		eg.Go(func() error {
			return vizServer.Run(ctx)
		})
	}

	eg.Go(func() error {
		return dec.Start(ctx)
	})

	if err := eg.Wait(); err != nil && err != context.Canceled {
		log.Fatal().Err(err).Msg("exited program")
	}
}
