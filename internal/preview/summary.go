// Package preview summarises and plots a converted time series so a
// conversion can be sanity-checked without opening the container file.
package preview

import (
	"fmt"
	"math"

	"github.com/banshee-data/motion-energy/internal/nwb"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes the finite samples of a series.
type Summary struct {
	Name     string
	Unit     string
	Samples  int
	Missing  int // NaN or infinite samples
	Duration float64
	Mean     float64
	StdDev   float64
	Min      float64
	Max      float64
}

// Summarise computes Summary for ts. Statistics are zero when the series has
// no finite samples.
func Summarise(ts *nwb.TimeSeries) Summary {
	s := Summary{
		Name:     ts.Name,
		Unit:     ts.Unit,
		Samples:  len(ts.Data),
		Duration: ts.Duration(),
	}
	finite := make([]float64, 0, len(ts.Data))
	for _, v := range ts.Data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			s.Missing++
			continue
		}
		finite = append(finite, v)
	}
	if len(finite) == 0 {
		return s
	}
	s.Mean, s.StdDev = stat.MeanStdDev(finite, nil)
	if len(finite) == 1 {
		s.StdDev = 0
	}
	s.Min = floats.Min(finite)
	s.Max = floats.Max(finite)
	return s
}

func (s Summary) String() string {
	return fmt.Sprintf("%s: %d samples (%d missing) over %.1fs, mean %.4g ± %.4g %s, range [%.4g, %.4g]",
		s.Name, s.Samples, s.Missing, s.Duration, s.Mean, s.StdDev, s.Unit, s.Min, s.Max)
}
