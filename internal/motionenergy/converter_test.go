package motionenergy

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/banshee-data/motion-energy/internal/alyx"
	"github.com/banshee-data/motion-energy/internal/nwb"
	"github.com/banshee-data/motion-energy/internal/testutil"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSession = "4b7fbad4-f6de-43b4-9b15-c7c7ef44db4b"

// fakeLoader serves objects from a map keyed by object name and records calls.
type fakeLoader struct {
	objects map[string]alyx.Object
	errs    map[string]error
	calls   []string
}

func (f *fakeLoader) LoadObject(ctx context.Context, session, object, collection string) (alyx.Object, error) {
	f.calls = append(f.calls, collection+"/"+object)
	if err := f.errs[object]; err != nil {
		return nil, err
	}
	obj, ok := f.objects[object]
	if !ok {
		return nil, alyx.ErrObjectNotFound
	}
	return obj, nil
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{
		objects: map[string]alyx.Object{
			"leftCamera": {
				"ROIMotionEnergy": {Shape: []int{3}, Data: []float64{0.1, 0.2, 0.3}},
				"times":           {Shape: []int{3}, Data: []float64{1.0, 1.1, 1.2}},
			},
			"leftROIMotionEnergy": {
				"position": {Shape: []int{4}, Data: []float64{100, 50, 10, 20}},
			},
		},
		errs: map[string]error{},
	}
}

func newDoc() *nwb.Document {
	return nwb.NewDocument("test", time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), nil)
}

func TestConverter_Convert(t *testing.T) {
	loader := newFakeLoader()
	doc := newDoc()

	ts, err := NewConverter(loader).Convert(context.Background(), testSession, "leftCamera", doc)
	require.NoError(t, err)

	want := &nwb.TimeSeries{
		Name:        "LeftCameraMotionEnergy",
		Description: Description(Left, ROI{Width: 100, Height: 50, X: 10, Y: 20}),
		Unit:        "a.u.",
		Data:        []float64{0.1, 0.2, 0.3},
		Timestamps:  []float64{1.0, 1.1, 1.2},
	}
	if diff := cmp.Diff(want, ts); diff != "" {
		t.Errorf("series mismatch (-want +got):\n%s", diff)
	}

	module, ok := doc.ProcessingModule("behavior")
	require.True(t, ok)
	assert.Equal(t, "processed behavioral data", module.Description)
	require.Len(t, module.Series, 1)
	assert.Same(t, ts, module.Series[0])

	assert.Equal(t, []string{"alf/leftCamera", "alf/leftROIMotionEnergy"}, loader.calls)
}

func TestConverter_ConvertTwiceAppends(t *testing.T) {
	doc := newDoc()
	c := NewConverter(newFakeLoader())

	_, err := c.Convert(context.Background(), testSession, "leftCamera", doc)
	require.NoError(t, err)
	_, err = c.Convert(context.Background(), testSession, "leftCamera", doc)
	require.NoError(t, err)

	require.Len(t, doc.ProcessingModules, 1)
	module := doc.ProcessingModules[0]
	require.Len(t, module.Series, 2)
	assert.Equal(t, "LeftCameraMotionEnergy", module.Series[0].Name)
	assert.Equal(t, "LeftCameraMotionEnergy", module.Series[1].Name)
}

func TestConverter_ExistingModuleReused(t *testing.T) {
	doc := newDoc()
	existing := doc.CreateProcessingModule("behavior", "wheel and licks")
	require.NoError(t, existing.Add(&nwb.TimeSeries{Name: "WheelPosition", Unit: "rad"}))

	_, err := NewConverter(newFakeLoader()).Convert(context.Background(), testSession, "leftCamera", doc)
	require.NoError(t, err)

	require.Len(t, doc.ProcessingModules, 1)
	assert.Equal(t, "wheel and licks", existing.Description)
	assert.Len(t, existing.Series, 2)
}

func TestConverter_MissingPositionLeavesDocumentUntouched(t *testing.T) {
	loader := newFakeLoader()
	loader.objects["leftROIMotionEnergy"] = alyx.Object{"bbox": {Data: []float64{1}}}

	doc := newDoc()
	_, err := NewConverter(loader).Convert(context.Background(), testSession, "leftCamera", doc)
	require.ErrorIs(t, err, alyx.ErrMissingAttribute)

	assert.Empty(t, doc.ProcessingModules)
	assert.Equal(t, 0, doc.SeriesCount())
}

func TestConverter_FailureAfterEarlierSuccess(t *testing.T) {
	loader := newFakeLoader()
	doc := newDoc()
	c := NewConverter(loader)

	_, err := c.Convert(context.Background(), testSession, "leftCamera", doc)
	require.NoError(t, err)

	delete(loader.objects["leftROIMotionEnergy"], "position")
	_, err = c.Convert(context.Background(), testSession, "leftCamera", doc)
	require.Error(t, err)

	assert.Equal(t, 1, doc.SeriesCount())
}

func TestConverter_Errors(t *testing.T) {
	netErr := errors.New("dial tcp: connection refused")

	tests := []struct {
		name    string
		camera  string
		setup   func(*fakeLoader)
		wantErr error
	}{
		{
			name:    "unknown camera",
			camera:  "topCamera",
			wantErr: ErrUnknownCamera,
		},
		{
			name:    "camera object missing",
			camera:  "rightCamera",
			wantErr: alyx.ErrObjectNotFound,
		},
		{
			name:    "network failure propagates",
			camera:  "leftCamera",
			setup:   func(f *fakeLoader) { f.errs["leftCamera"] = netErr },
			wantErr: netErr,
		},
		{
			name:    "missing values",
			camera:  "leftCamera",
			setup:   func(f *fakeLoader) { delete(f.objects["leftCamera"], "ROIMotionEnergy") },
			wantErr: alyx.ErrMissingAttribute,
		},
		{
			name:    "missing times",
			camera:  "leftCamera",
			setup:   func(f *fakeLoader) { delete(f.objects["leftCamera"], "times") },
			wantErr: alyx.ErrMissingAttribute,
		},
		{
			name:   "malformed position",
			camera: "leftCamera",
			setup: func(f *fakeLoader) {
				f.objects["leftROIMotionEnergy"]["position"] = alyx.Array{Data: []float64{1, 2, 3}}
			},
			wantErr: ErrMalformedPosition,
		},
		{
			name:   "length mismatch",
			camera: "leftCamera",
			setup: func(f *fakeLoader) {
				f.objects["leftCamera"]["times"] = alyx.Array{Data: []float64{1}}
			},
			wantErr: nwb.ErrLengthMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := newFakeLoader()
			if tt.setup != nil {
				tt.setup(loader)
			}
			doc := newDoc()

			_, err := NewConverter(loader).Convert(context.Background(), testSession, tt.camera, doc)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, 0, doc.SeriesCount())
			assert.Empty(t, doc.ProcessingModules)
		})
	}
}

func TestConverter_UnknownCameraSkipsFetch(t *testing.T) {
	loader := newFakeLoader()
	_, err := NewConverter(loader).Series(context.Background(), testSession, "frontCamera")
	assert.ErrorIs(t, err, ErrUnknownCamera)
	assert.Empty(t, loader.calls)
}

func TestConvert_AgainstAlyx(t *testing.T) {
	f := testutil.NewFakeAlyx(t)
	f.AddDataset(testSession, "alf", "bodyCamera.ROIMotionEnergy.npy", testutil.NPY(t, []float64{5, 6}))
	f.AddDataset(testSession, "alf", "_ibl_bodyCamera.times.npy", testutil.NPY(t, []float64{0.02, 0.04}))
	f.AddDataset(testSession, "alf", "bodyROIMotionEnergy.position.npy", testutil.NPY(t, []int64{64, 32, 8, 4}))

	cfg := alyx.DefaultConfig()
	cfg.BaseURL = f.URL()
	cacheDir := t.TempDir()
	doc := newDoc()

	err := Convert(context.Background(), cfg, testSession, cacheDir, "bodyCamera", doc)
	require.NoError(t, err)

	module, ok := doc.ProcessingModule("behavior")
	require.True(t, ok)
	ts, ok := module.Get("BodyCameraMotionEnergy")
	require.True(t, ok)
	assert.Equal(t, []float64{5, 6}, ts.Data)
	assert.Equal(t, []float64{0.02, 0.04}, ts.Timestamps)
	assert.Contains(t, ts.Description, "body camera video")
	assert.Contains(t, ts.Description, "[4:36, 8:72]")

	// Second run is served from the cache.
	require.NoError(t, Convert(context.Background(), cfg, testSession, cacheDir, "bodyCamera", doc))
	assert.Equal(t, 1, f.DownloadCount("bodyCamera.ROIMotionEnergy.npy"))
	assert.Len(t, module.Series, 2)
}
