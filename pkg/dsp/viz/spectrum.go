package viz

import (
	"bytes"
	"math"
	"math/cmplx"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/wavetap/uartrx/pkg/dsp/filters/fir"
)

const specAvg = 0.10

// SpectrumPlotter renders a smoothed power spectrum of the line signal.
// A clean capture shows its energy below half the baud rate; a baud
// mismatch or a noisy probe is obvious as energy spread well above it.
type SpectrumPlotter struct {
	buf          []float32
	len          int
	sampleRate   int
	averagePower []float64
	name         string
	plotOptions  []PlotOptions
	mu           sync.Mutex
}

func NewSpectrumPlotter(name string, length, sampleRate int) *SpectrumPlotter {
	return &SpectrumPlotter{
		buf:          make([]float32, length),
		averagePower: make([]float64, length/2+1),
		len:          length,
		sampleRate:   sampleRate,
		name:         name,
	}
}

func (sp *SpectrumPlotter) Name() string {
	return sp.name
}

func (sp *SpectrumPlotter) AppendFloat(s []float32) {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	if len(s) > sp.len {
		copy(sp.buf, s[len(s)-sp.len:])
		return
	}
	sp.buf = append(sp.buf, s...)
	sp.buf = sp.buf[len(s):]
}

func (sp *SpectrumPlotter) AddPlotOption(opt PlotOptions) {
	sp.plotOptions = append(sp.plotOptions, opt)
}

func (sp *SpectrumPlotter) GetImage() *ImageContainer {
	p := plotWithDefaults()
	p.Title.Text = sp.name
	p.Y.Label.Text = "Power (dB)"
	p.X.Label.Text = "Frequency"
	p.Y.Max = 0
	p.Y.Min = -100

	for _, opt := range sp.plotOptions {
		opt(p)
	}

	p.Add(plotter.NewGrid())

	win := fir.BlackmanWindow(sp.len)
	f := fourier.NewFFT(sp.len)
	data := make([]float64, sp.len)
	sp.mu.Lock()
	for i := 0; i < sp.len; i++ {
		data[i] = float64(sp.buf[i]) * float64(win[i])
	}
	sp.mu.Unlock()
	coeffs := f.Coefficients(nil, data)

	plotutil.AddLines(p, "frequency", func() plotter.XYs {
		ret := make(plotter.XYs, len(coeffs))
		for i := 0; i < len(coeffs); i++ {
			freq := f.Freq(i) * float64(sp.sampleRate)
			mag := cmplx.Abs(coeffs[i]) / float64(sp.len)

			sp.averagePower[i] = ((1.0 - specAvg) * sp.averagePower[i]) + (specAvg * mag)

			y := -100.0
			if sp.averagePower[i] > 1e-5 {
				y = 20 * math.Log10(sp.averagePower[i])
			}
			ret[i] = plotter.XY{X: freq, Y: y}
		}
		return ret
	}())

	var imageData bytes.Buffer
	w, err := p.WriterTo(8*vg.Inch, 6*vg.Inch, "png")
	if err != nil {
		panic(err)
	}
	w.WriteTo(&imageData)
	return &ImageContainer{name: sp.name, data: imageData.Bytes()}
}
