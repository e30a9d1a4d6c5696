package processor

import (
	"github.com/wavetap/uartrx/pkg/dsp/viz"
	"github.com/wavetap/uartrx/pkg/uart"
)

type DataType int

const (
	DataTypeFloat DataType = iota
	DataTypeLevels
	DataTypeFrames
)

// Float in, float out (filters)
type FFWorker interface {
	WorkBuffer([]float32, []float32) int
	PredictOutputSize(int) int
}

// Float in, logic levels out (1 level per byte)
type FLWorker interface {
	WorkBuffer([]float32, []byte) int
	PredictOutputSize(int) int
}

// Logic levels in, decoded frames out
type LFWorker interface {
	WorkBuffer([]byte, []uart.Frame) int
	PredictOutputSize(int) int
}

type Worker struct {
	Name        string
	DisplayName string
	InputRate   int
	OutputRate  int

	inputDataType  DataType
	outputDataType DataType

	ffWorker FFWorker
	flWorker FLWorker
	lfWorker LFWorker

	fOutputBuffer     []float32
	levelOutputBuffer []byte
	frameOutputBuffer []uart.Frame

	trace   *viz.LineTracePlotter
	vizSize int

	plotOptions []viz.PlotOptions
}

type WorkerOption func(w *Worker)

func WithPlotOptions(opts []viz.PlotOptions) WorkerOption {
	return func(w *Worker) {
		w.plotOptions = append(w.plotOptions, opts...)
	}
}

func WithVizLength(length int) WorkerOption {
	return func(w *Worker) {
		w.vizSize = length
	}
}

func baseWorker(name, displayName string, inputRate, outputRate int) *Worker {
	return &Worker{
		Name:        name,
		DisplayName: displayName,
		InputRate:   inputRate,
		OutputRate:  outputRate,
	}
}

func NewWorkerFF(name, displayName string, inputRate, outputRate int, worker FFWorker, opts ...WorkerOption) *Worker {
	ret := baseWorker(name, displayName, inputRate, outputRate)
	ret.inputDataType = DataTypeFloat
	ret.outputDataType = DataTypeFloat
	ret.ffWorker = worker

	for _, opt := range opts {
		opt(ret)
	}

	return ret
}

func NewWorkerFL(name, displayName string, inputRate, outputRate int, worker FLWorker, opts ...WorkerOption) *Worker {
	ret := baseWorker(name, displayName, inputRate, outputRate)
	ret.inputDataType = DataTypeFloat
	ret.outputDataType = DataTypeLevels
	ret.flWorker = worker

	for _, opt := range opts {
		opt(ret)
	}

	return ret
}

func NewWorkerLF(name, displayName string, inputRate, outputRate int, worker LFWorker, opts ...WorkerOption) *Worker {
	ret := baseWorker(name, displayName, inputRate, outputRate)
	ret.inputDataType = DataTypeLevels
	ret.outputDataType = DataTypeFrames
	ret.lfWorker = worker

	for _, opt := range opts {
		opt(ret)
	}

	return ret
}
