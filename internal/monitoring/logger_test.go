package monitoring

import (
	"fmt"
	"testing"
)

func TestSetLogger(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	called := false
	SetLogger(func(format string, v ...interface{}) {
		called = true
	})
	Logf("test message")
	if !called {
		t.Error("custom logger was not called")
	}

	called = false
	SetLogger(nil)
	Logf("test message")
	if called {
		t.Error("no-op logger should not have triggered the previous callback")
	}
}

func TestLogf_Default(t *testing.T) {
	if Logf == nil {
		t.Fatal("Logf should not be nil by default")
	}
}

func TestNamed(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	var lines []string
	SetLogger(func(format string, v ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, v...))
	})

	logf := Named("alyx")
	logf("downloaded %d files", 3)

	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	if lines[0] != "[alyx] downloaded 3 files" {
		t.Errorf("got %q", lines[0])
	}
}

func TestNamed_FollowsSetLogger(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	logf := Named("nwbfile")

	var got string
	SetLogger(func(format string, v ...interface{}) {
		got = fmt.Sprintf(format, v...)
	})
	logf("migrated to %d", 1)

	if got != "[nwbfile] migrated to 1" {
		t.Errorf("got %q, named logger should use the logger installed after it was created", got)
	}
}
