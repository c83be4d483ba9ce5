package security

import (
	"path/filepath"
	"testing"
)

func TestValidatePathWithinDirectory(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		dir     string
		wantErr bool
	}{
		{"inside", "/cache/s1/alf/a.npy", "/cache", false},
		{"dir itself", "/cache", "/cache", false},
		{"dotdot escape", "/cache/../etc/passwd", "/cache", true},
		{"sibling prefix", "/cache2/a.npy", "/cache", true},
		{"relative inside", "cache/a.npy", "cache", false},
		{"relative escape", "cache/../../a.npy", "cache", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePathWithinDirectory(tt.path, tt.dir)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePathWithinDirectory(%q, %q) error = %v, wantErr %v", tt.path, tt.dir, err, tt.wantErr)
			}
		})
	}
}

func TestSafeJoin(t *testing.T) {
	got, err := SafeJoin("/cache", "s1", "alf/probe00", "spikes.times.npy")
	if err != nil {
		t.Fatalf("SafeJoin failed: %v", err)
	}
	if want := filepath.Join("/cache", "s1", "alf", "probe00", "spikes.times.npy"); got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	bad := [][]string{
		{"s1", "alf", "../../../etc/passwd"},
		{"s1", "/etc", "passwd"},
		{"s1", "", "a.npy"},
		{".."},
		{"."},
		{"s1", ".."},
	}
	for _, elems := range bad {
		if p, err := SafeJoin("/cache", elems...); err == nil {
			t.Errorf("SafeJoin(%v) = %q, want error", elems, p)
		}
	}
}
