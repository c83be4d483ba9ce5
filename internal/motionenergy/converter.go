// Package motionenergy turns the ROI motion energy computed for an IBL
// session video into an NWB time series under the "behavior" module.
package motionenergy

import (
	"context"
	"fmt"

	"github.com/banshee-data/motion-energy/internal/alyx"
	"github.com/banshee-data/motion-energy/internal/nwb"
)

const (
	// ModuleName and ModuleDescription identify the processing module the
	// series is added to.
	ModuleName        = "behavior"
	ModuleDescription = "processed behavioral data"

	// Unit of motion energy; the values are arbitrary units.
	Unit = "a.u."

	valuesAttribute     = "ROIMotionEnergy"
	timestampsAttribute = "times"
	positionAttribute   = "position"
)

// ObjectLoader fetches ALF objects. *alyx.Client implements it.
type ObjectLoader interface {
	LoadObject(ctx context.Context, session, object, collection string) (alyx.Object, error)
}

// Converter builds motion energy series from objects served by Loader.
type Converter struct {
	Loader     ObjectLoader
	Collection string
}

// NewConverter returns a converter reading from the "alf" collection.
func NewConverter(loader ObjectLoader) *Converter {
	return &Converter{Loader: loader, Collection: alyx.DefaultCollection}
}

// Series fetches the camera's motion energy and ROI geometry and returns the
// resulting time series without touching any document.
func (c *Converter) Series(ctx context.Context, sessionID, cameraName string) (*nwb.TimeSeries, error) {
	side, err := ParseSide(cameraName)
	if err != nil {
		return nil, err
	}

	camera, err := c.Loader.LoadObject(ctx, sessionID, cameraName, c.Collection)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", cameraName, err)
	}
	values, err := camera.Attribute(valuesAttribute)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", cameraName, err)
	}
	times, err := camera.Attribute(timestampsAttribute)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", cameraName, err)
	}

	region, err := c.Loader.LoadObject(ctx, sessionID, side.ROIObject(), c.Collection)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", side.ROIObject(), err)
	}
	position, err := region.Attribute(positionAttribute)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", side.ROIObject(), err)
	}
	roi, err := ROIFromPosition(position.Data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", side.ROIObject(), err)
	}

	return &nwb.TimeSeries{
		Name:        side.SeriesName(),
		Description: Description(side, roi),
		Unit:        Unit,
		Data:        values.Data,
		Timestamps:  times.Data,
	}, nil
}

// Convert adds the camera's motion energy series to doc's behavior module,
// creating the module if needed. The document is only modified once the
// series has been fetched and validated, so a failed conversion leaves it
// as it was. Converting the same camera twice adds two series.
func (c *Converter) Convert(ctx context.Context, sessionID, cameraName string, doc *nwb.Document) (*nwb.TimeSeries, error) {
	ts, err := c.Series(ctx, sessionID, cameraName)
	if err != nil {
		return nil, err
	}
	if err := ts.Validate(); err != nil {
		return nil, err
	}
	module := doc.CreateProcessingModule(ModuleName, ModuleDescription)
	if err := module.Add(ts); err != nil {
		return nil, err
	}
	return ts, nil
}

// Convert connects to the service described by cfg, caching downloads in
// cacheDir, and adds cameraName's motion energy for sessionID to doc.
func Convert(ctx context.Context, cfg alyx.Config, sessionID, cacheDir, cameraName string, doc *nwb.Document) error {
	cfg.CacheDir = cacheDir
	client, err := alyx.New(cfg)
	if err != nil {
		return err
	}
	_, err = NewConverter(client).Convert(ctx, sessionID, cameraName, doc)
	return err
}
