package preview

import (
	"errors"
	"fmt"
	"math"

	"github.com/banshee-data/motion-energy/internal/nwb"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// ErrNoFiniteSamples is returned when a series has nothing to draw.
var ErrNoFiniteSamples = errors.New("preview: series has no finite samples")

// finitePoints pairs timestamps and values, dropping non-finite samples.
// Motion energy traces usually start with a NaN.
func finitePoints(ts *nwb.TimeSeries) plotter.XYs {
	pts := make(plotter.XYs, 0, len(ts.Data))
	for i, v := range ts.Data {
		if i >= len(ts.Timestamps) {
			break
		}
		x := ts.Timestamps[i]
		if math.IsNaN(v) || math.IsInf(v, 0) || math.IsNaN(x) || math.IsInf(x, 0) {
			continue
		}
		pts = append(pts, plotter.XY{X: x, Y: v})
	}
	return pts
}

// RenderPNG draws ts against time and saves it to path. The image format
// follows the file extension (.png, .svg, .pdf).
func RenderPNG(ts *nwb.TimeSeries, path string) error {
	pts := finitePoints(ts)
	if len(pts) == 0 {
		return fmt.Errorf("%w: %s", ErrNoFiniteSamples, ts.Name)
	}

	p := plot.New()
	p.Title.Text = ts.Name
	p.X.Label.Text = "time (s)"
	p.Y.Label.Text = "motion energy (" + ts.Unit + ")"
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("preview: %w", err)
	}
	line.Width = vg.Points(0.5)
	p.Add(line)

	if err := p.Save(14*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("preview: save %s: %w", path, err)
	}
	return nil
}
