// Package processor chains DSP blocks into a line-decoding pipeline.
// Blocks are typed by what flows between them (float samples, logic
// levels, decoded frames) and adjacent blocks must agree on both data
// type and sample rate.
package processor

import (
	"errors"
	"fmt"

	"github.com/wavetap/uartrx/pkg/dsp/viz"
	"github.com/wavetap/uartrx/pkg/uart"
	"github.com/wavetap/uartrx/pkg/util"
)

type Processor struct {
	Name        string
	InputName   string
	blocks      []*Worker
	vizServer   *viz.Server
	initialized bool
	inputSpec   *viz.SpectrumPlotter
}

func NewProcessor(name, inputName string, vizServer *viz.Server) *Processor {
	return &Processor{
		Name:      name,
		InputName: inputName,
		vizServer: vizServer,
	}
}

func (p *Processor) AddBlock(worker *Worker) {
	p.blocks = append(p.blocks, worker)
}

func (p *Processor) Initialize() error {
	if p.initialized {
		return nil
	}
	if len(p.blocks) < 2 {
		return fmt.Errorf("must specify at least 2 blocks")
	}
	if p.blocks[0].inputDataType != DataTypeFloat {
		return fmt.Errorf("first block %s must consume float samples", p.blocks[0].Name)
	}
	if p.blocks[len(p.blocks)-1].outputDataType != DataTypeFrames {
		return fmt.Errorf("last block %s must produce frames", p.blocks[len(p.blocks)-1].Name)
	}

	vizIndex := 0
	nextIndexString := func(s string) string {
		vizIndex++
		return fmt.Sprintf("%02d. %s", vizIndex, s)
	}

	cur := p.blocks[0]

	if p.vizServer != nil {
		p.inputSpec = viz.NewSpectrumPlotter(nextIndexString(p.InputName), 1024, cur.InputRate)
		p.vizServer.Register(p.Name, p.inputSpec)
	}

	registerTrace := func(w *Worker) {
		if p.vizServer == nil {
			return
		}
		vizLength := 256
		if w.vizSize > 0 {
			vizLength = w.vizSize
		}
		w.trace = viz.NewLineTracePlotter(nextIndexString(w.DisplayName), vizLength)
		if w.outputDataType == DataTypeLevels {
			w.trace.SetRange(-0.5, 1.5)
		}
		for _, opt := range w.plotOptions {
			w.trace.AddPlotOption(opt)
		}
		p.vizServer.Register(p.Name, w.trace)
	}

	for i := 1; i < len(p.blocks); i++ {
		next := p.blocks[i]

		if cur.outputDataType != next.inputDataType {
			return fmt.Errorf("cur: %s next %s data type mismatch (%d %d)", cur.Name, next.Name, cur.outputDataType, next.inputDataType)
		}
		if cur.OutputRate != next.InputRate {
			return fmt.Errorf("cur: %s next %s rate mismatch (%d %d)", cur.Name, next.Name, cur.OutputRate, next.InputRate)
		}

		if cur.outputDataType == DataTypeFloat || cur.outputDataType == DataTypeLevels {
			registerTrace(cur)
		}

		cur = next
	}

	p.initialized = true

	return nil
}

// ProcessFloatToFrames runs a segment of line samples through the chain
// and returns the frames decoded from it. Per-block timings are added
// to metrics when it is non-nil.
func (p *Processor) ProcessFloatToFrames(seg *uart.SegmentFloat32, metrics map[string]interface{}) ([]uart.Frame, error) {
	if !p.initialized {
		if err := p.Initialize(); err != nil {
			return nil, err
		}
	}
	if seg == nil || len(seg.Data) == 0 {
		return nil, errors.New("must specify input")
	}

	if p.inputSpec != nil {
		p.inputSpec.AppendFloat(seg.Data)
	}

	floatInput := seg.Data
	var levelInput []byte
	var frames []uart.Frame
	inputType := DataTypeFloat

	for _, block := range p.blocks {
		if block.inputDataType != inputType {
			return nil, fmt.Errorf("error in %s: expected %d got %d input type", block.Name, inputType, block.inputDataType)
		}

		var work func()

		switch block.inputDataType {
		case DataTypeFloat:
			in := floatInput
			switch block.outputDataType {
			case DataTypeFloat:
				if len(block.fOutputBuffer) < block.ffWorker.PredictOutputSize(len(in)) {
					block.fOutputBuffer = make([]float32, block.ffWorker.PredictOutputSize(len(in))*2)
				}
				work = func() {
					length := block.ffWorker.WorkBuffer(in, block.fOutputBuffer)
					floatInput = block.fOutputBuffer[:length]

					if block.trace != nil {
						block.trace.AppendFloat(floatInput)
					}
				}
			case DataTypeLevels:
				if len(block.levelOutputBuffer) < block.flWorker.PredictOutputSize(len(in)) {
					block.levelOutputBuffer = make([]byte, block.flWorker.PredictOutputSize(len(in))*2)
				}
				work = func() {
					length := block.flWorker.WorkBuffer(in, block.levelOutputBuffer)
					levelInput = block.levelOutputBuffer[:length]

					if block.trace != nil {
						block.trace.AppendLevels(levelInput)
					}
				}
			default:
				return nil, fmt.Errorf("%s unknown output type %d for input %d", block.Name, block.outputDataType, block.inputDataType)
			}

		case DataTypeLevels:
			in := levelInput
			if block.outputDataType != DataTypeFrames {
				return nil, fmt.Errorf("%s unknown output type %d for input %d", block.Name, block.outputDataType, block.inputDataType)
			}
			if len(block.frameOutputBuffer) < block.lfWorker.PredictOutputSize(len(in)) {
				block.frameOutputBuffer = make([]uart.Frame, block.lfWorker.PredictOutputSize(len(in))*2)
			}
			work = func() {
				length := block.lfWorker.WorkBuffer(in, block.frameOutputBuffer)
				frames = block.frameOutputBuffer[:length]
			}

		default:
			return nil, fmt.Errorf("%s unknown input type %d", block.Name, block.inputDataType)
		}

		duration := util.TimeOperationMicroseconds(work)
		if metrics != nil {
			metrics[block.Name+"_duration"] = duration
		}

		inputType = block.outputDataType
	}

	return frames, nil
}
