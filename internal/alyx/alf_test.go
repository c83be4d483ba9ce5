package alyx

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseDatasetName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want DatasetName
		ok   bool
	}{
		{
			name: "plain",
			in:   "leftCamera.ROIMotionEnergy.npy",
			want: DatasetName{Object: "leftCamera", Attribute: "ROIMotionEnergy", Extension: "npy"},
			ok:   true,
		},
		{
			name: "namespace",
			in:   "_ibl_leftCamera.times.npy",
			want: DatasetName{Namespace: "ibl", Object: "leftCamera", Attribute: "times", Extension: "npy"},
			ok:   true,
		},
		{
			name: "extra parts",
			in:   "bodyCamera.dlc.2f1b.pqt",
			want: DatasetName{Object: "bodyCamera", Attribute: "dlc", Extra: []string{"2f1b"}, Extension: "pqt"},
			ok:   true,
		},
		{name: "too short", in: "leftCamera.npy"},
		{name: "empty part", in: "leftCamera..npy"},
		{name: "empty", in: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDatasetName(tt.in)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseDatasetName(%q) mismatch (-want +got):\n%s", tt.in, diff)
			}
		})
	}
}
