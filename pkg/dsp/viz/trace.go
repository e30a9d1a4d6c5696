package viz

import (
	"bytes"
	"sync"

	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// LineTracePlotter renders the most recent stretch of line samples as a
// time-domain trace. Both the raw analog capture and the sliced logic
// levels plot usefully with it.
type LineTracePlotter struct {
	buf         []float32
	size        int
	name        string
	yMin, yMax  float64
	plotOptions []PlotOptions
	mu          sync.Mutex
}

func NewLineTracePlotter(name string, size int) *LineTracePlotter {
	return &LineTracePlotter{
		buf:  make([]float32, 0, size),
		size: size,
		name: name,
		yMin: -1.5,
		yMax: 1.5,
	}
}

func (tp *LineTracePlotter) Name() string {
	return tp.name
}

// SetRange overrides the fixed Y axis, e.g. 0..1.5 for sliced levels.
func (tp *LineTracePlotter) SetRange(min, max float64) {
	tp.yMin, tp.yMax = min, max
}

func (tp *LineTracePlotter) AppendFloat(f []float32) {
	tp.mu.Lock()
	defer tp.mu.Unlock()

	tp.buf = append(tp.buf, f...)
	if len(tp.buf) > tp.size {
		tp.buf = tp.buf[len(tp.buf)-tp.size:]
	}
}

// AppendLevels buffers sliced logic levels as floats.
func (tp *LineTracePlotter) AppendLevels(levels []byte) {
	tp.mu.Lock()
	defer tp.mu.Unlock()

	for _, l := range levels {
		tp.buf = append(tp.buf, float32(l))
	}
	if len(tp.buf) > tp.size {
		tp.buf = tp.buf[len(tp.buf)-tp.size:]
	}
}

func (tp *LineTracePlotter) AddPlotOption(opt PlotOptions) {
	tp.plotOptions = append(tp.plotOptions, opt)
}

func (tp *LineTracePlotter) GetImage() *ImageContainer {
	tp.mu.Lock()
	if len(tp.buf) < tp.size {
		tp.mu.Unlock()
		return nil
	}
	snapshot := make([]float32, tp.size)
	copy(snapshot, tp.buf)
	tp.mu.Unlock()

	p := plotWithDefaults()

	p.Title.Text = tp.name
	p.Y.Label.Text = "Level"
	p.Y.Min = tp.yMin
	p.Y.Max = tp.yMax
	p.X.Label.Text = "tick"

	for _, opt := range tp.plotOptions {
		opt(p)
	}

	p.Add(plotter.NewGrid())

	plotutil.AddLines(p, "line", func() plotter.XYs {
		ret := make(plotter.XYs, tp.size)
		for i := 0; i < tp.size; i++ {
			ret[i] = plotter.XY{X: float64(i), Y: float64(snapshot[i])}
		}
		return ret
	}())

	var imageData bytes.Buffer
	w, err := p.WriterTo(8*vg.Inch, 6*vg.Inch, "png")
	if err != nil {
		panic(err)
	}
	w.WriteTo(&imageData)
	return &ImageContainer{name: tp.name, data: imageData.Bytes()}
}
