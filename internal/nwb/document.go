// Package nwb models the parts of a Neurodata Without Borders document the
// converter writes: the file-level metadata, named processing modules and
// the time series they hold.
package nwb

import (
	"time"

	"github.com/banshee-data/motion-energy/internal/timeutil"
	"github.com/banshee-data/motion-energy/internal/version"
	"github.com/google/uuid"
)

// Document is an in-memory NWB file.
type Document struct {
	Identifier         string
	SessionDescription string
	SessionStartTime   time.Time
	FileCreateDate     time.Time
	SourceScript       string

	ProcessingModules []*ProcessingModule
}

// NewDocument creates an empty document with a fresh identifier. clock may
// be nil, in which case the real clock is used for FileCreateDate.
func NewDocument(sessionDescription string, sessionStart time.Time, clock timeutil.Clock) *Document {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Document{
		Identifier:         uuid.NewString(),
		SessionDescription: sessionDescription,
		SessionStartTime:   sessionStart,
		FileCreateDate:     clock.Now(),
		SourceScript:       "motion-energy " + version.String(),
	}
}

// ProcessingModule returns the module with the given name, if any.
func (d *Document) ProcessingModule(name string) (*ProcessingModule, bool) {
	for _, m := range d.ProcessingModules {
		if m.Name == name {
			return m, true
		}
	}
	return nil, false
}

// CreateProcessingModule returns the module called name, creating it with
// description if the document does not have one yet. An existing module
// keeps its original description.
func (d *Document) CreateProcessingModule(name, description string) *ProcessingModule {
	if m, ok := d.ProcessingModule(name); ok {
		return m
	}
	m := &ProcessingModule{Name: name, Description: description}
	d.ProcessingModules = append(d.ProcessingModules, m)
	return m
}

// SeriesCount returns the number of time series across all modules.
func (d *Document) SeriesCount() int {
	n := 0
	for _, m := range d.ProcessingModules {
		n += len(m.Series)
	}
	return n
}

// ProcessingModule groups derived signals under a name such as "behavior".
type ProcessingModule struct {
	Name        string
	Description string
	Series      []*TimeSeries
}

// Add validates ts and appends it. Names are not required to be unique;
// adding the same series twice stores it twice.
func (m *ProcessingModule) Add(ts *TimeSeries) error {
	if err := ts.Validate(); err != nil {
		return err
	}
	m.Series = append(m.Series, ts)
	return nil
}

// Get returns the first series called name.
func (m *ProcessingModule) Get(name string) (*TimeSeries, bool) {
	for _, ts := range m.Series {
		if ts.Name == name {
			return ts, true
		}
	}
	return nil, false
}
