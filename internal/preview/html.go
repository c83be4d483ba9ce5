package preview

import (
	"fmt"
	"io"
	"strconv"

	"github.com/banshee-data/motion-energy/internal/nwb"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// MaxChartPoints caps how many samples RenderHTML embeds. Longer series are
// decimated by a fixed stride.
const MaxChartPoints = 5000

// RenderHTML writes an interactive line chart of ts to w.
func RenderHTML(ts *nwb.TimeSeries, w io.Writer) error {
	pts := finitePoints(ts)
	if len(pts) == 0 {
		return fmt.Errorf("%w: %s", ErrNoFiniteSamples, ts.Name)
	}

	stride := 1
	if len(pts) > MaxChartPoints {
		stride = (len(pts) + MaxChartPoints - 1) / MaxChartPoints
	}

	xs := make([]string, 0, len(pts)/stride+1)
	ys := make([]opts.LineData, 0, len(pts)/stride+1)
	for i := 0; i < len(pts); i += stride {
		xs = append(xs, strconv.FormatFloat(pts[i].X, 'f', 3, 64))
		ys = append(ys, opts.LineData{Value: pts[i].Y})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: ts.Name, Width: "100%", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    ts.Name,
			Subtitle: fmt.Sprintf("%d of %d samples, stride %d", len(xs), len(ts.Data), stride),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "time (s)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: ts.Unit}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}),
	)
	line.SetXAxis(xs).AddSeries(ts.Name, ys, charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))

	if err := line.Render(w); err != nil {
		return fmt.Errorf("preview: render chart: %w", err)
	}
	return nil
}
