package config

import (
	"fmt"
	"time"

	"github.com/wavetap/uartrx/pkg/uart"
)

type Config struct {
	ClockFreq    int         `yaml:"clock_freq"`
	BaudRate     int         `yaml:"baud_rate"`
	DataBits     int         `yaml:"data_bits"`
	Parity       uart.Parity `yaml:"parity"`
	StopBits     int         `yaml:"stop_bits"`
	MaxBaudError float64     `yaml:"max_baud_error"`

	Device           string `yaml:"device"`
	PlaybackLocation string `yaml:"playback_location"`
	ReadSize         int    `yaml:"read_size"`

	Serial struct {
		Port string `yaml:"port"`
		Baud int    `yaml:"baud"`
	} `yaml:"serial"`

	Synth struct {
		NoiseStddev      float64 `yaml:"noise_stddev"`
		ParityFaultRate  float64 `yaml:"parity_fault_rate"`
		FramingFaultRate float64 `yaml:"framing_fault_rate"`
		GlitchRate       float64 `yaml:"glitch_rate"`
		Seed             int64   `yaml:"seed"`
	} `yaml:"synth"`

	Slicer struct {
		Threshold float64 `yaml:"threshold"`
		Invert    bool    `yaml:"invert"`
	} `yaml:"slicer"`

	AGC struct {
		Enabled bool    `yaml:"enabled"`
		Alpha   float64 `yaml:"alpha"`
		Gain    float64 `yaml:"gain"`
	} `yaml:"agc"`

	LowPass struct {
		Enabled         bool    `yaml:"enabled"`
		CutFrequency    float64 `yaml:"cut_freq"`
		TransitionWidth float64 `yaml:"transition_width"`
	} `yaml:"low_pass"`

	// Output selects how decoded bytes are written: "hex" or "raw".
	Output string `yaml:"output"`

	VizServer struct {
		Port           int           `yaml:"port"`
		UpdateInterval time.Duration `yaml:"update_interval_ms"`
	} `yaml:"viz_server"`

	InfluxDB struct {
		Host         string `yaml:"host"`
		Organization string `yaml:"organization"`
		Bucket       string `yaml:"bucket"`
	} `yaml:"influxdb"`
}

// FrameConfig derives the receiver wire format. Clock frequency, baud
// rate and the framing parameters are required; there are no defaults
// to fall back on.
func (c *Config) FrameConfig() (uart.FrameConfig, error) {
	if c.ClockFreq == 0 || c.BaudRate == 0 {
		return uart.FrameConfig{}, fmt.Errorf("clock_freq and baud_rate are required")
	}
	if c.DataBits == 0 || c.StopBits == 0 || c.Parity == "" {
		return uart.FrameConfig{}, fmt.Errorf("data_bits, parity and stop_bits are required")
	}
	maxErr := c.MaxBaudError
	if maxErr == 0 {
		maxErr = uart.DefaultMaxBaudError
	}
	return uart.FrameConfigFor(c.ClockFreq, c.BaudRate, c.DataBits, c.Parity, c.StopBits, maxErr)
}
