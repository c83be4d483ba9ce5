package nwb

import (
	"errors"
	"fmt"
)

var (
	// ErrLengthMismatch is returned when data and timestamps differ in length.
	ErrLengthMismatch = errors.New("nwb: data and timestamps length mismatch")
	// ErrInvalidSeries is returned for series missing required fields.
	ErrInvalidSeries = errors.New("nwb: invalid time series")
)

// TimeSeries is a one-dimensional signal sampled at explicit timestamps.
type TimeSeries struct {
	Name        string
	Description string
	Comments    string
	Unit        string
	Data        []float64
	// Timestamps are in seconds, one per element of Data.
	Timestamps []float64
}

// Validate checks the invariants the container format enforces.
func (ts *TimeSeries) Validate() error {
	if ts == nil {
		return fmt.Errorf("%w: nil series", ErrInvalidSeries)
	}
	if ts.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidSeries)
	}
	if ts.Unit == "" {
		return fmt.Errorf("%w: %s has no unit", ErrInvalidSeries, ts.Name)
	}
	if len(ts.Data) != len(ts.Timestamps) {
		return fmt.Errorf("%w: %s has %d samples and %d timestamps",
			ErrLengthMismatch, ts.Name, len(ts.Data), len(ts.Timestamps))
	}
	return nil
}

// Duration returns the time spanned by the timestamps in seconds.
func (ts *TimeSeries) Duration() float64 {
	if len(ts.Timestamps) < 2 {
		return 0
	}
	return ts.Timestamps[len(ts.Timestamps)-1] - ts.Timestamps[0]
}
