package config

import (
	"testing"

	"gopkg.in/yaml.v2"

	"github.com/wavetap/uartrx/pkg/uart"
)

const sampleConfig = `
clock_freq: 24000000
baud_rate: 1000000
data_bits: 8
parity: even
stop_bits: 1
device: synth
slicer:
  threshold: 0.0
  invert: false
output: hex
viz_server:
  port: 8089
  update_interval_ms: 500000000
`

func Test_ConfigUnmarshal(t *testing.T) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(sampleConfig), &cfg); err != nil {
		t.Fatal(err)
	}

	fc, err := cfg.FrameConfig()
	if err != nil {
		t.Fatal(err)
	}
	if fc.TicksPerBit != 24 {
		t.Errorf("TicksPerBit = %d, want 24", fc.TicksPerBit)
	}
	if fc.Parity != uart.ParityEven {
		t.Errorf("Parity = %q, want even", fc.Parity)
	}
	if cfg.VizServer.Port != 8089 {
		t.Errorf("viz port = %d, want 8089", cfg.VizServer.Port)
	}
}

func Test_FrameConfigRequiresFraming(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*Config)
	}{
		{"missing clock", func(c *Config) { c.ClockFreq = 0 }},
		{"missing baud", func(c *Config) { c.BaudRate = 0 }},
		{"missing data bits", func(c *Config) { c.DataBits = 0 }},
		{"missing parity", func(c *Config) { c.Parity = "" }},
		{"missing stop bits", func(c *Config) { c.StopBits = 0 }},
		{"unknown parity", func(c *Config) { c.Parity = "space" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg Config
			if err := yaml.Unmarshal([]byte(sampleConfig), &cfg); err != nil {
				t.Fatal(err)
			}
			tt.mod(&cfg)
			if _, err := cfg.FrameConfig(); err == nil {
				t.Error("expected error for incomplete framing config")
			}
		})
	}
}
