package motionenergy

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownCamera is returned when a camera name does not map to a known side.
var ErrUnknownCamera = errors.New("motionenergy: unknown camera")

// Side is the camera position label.
type Side string

const (
	Left  Side = "left"
	Right Side = "right"
	Body  Side = "body"
)

// sidePrefixLen is how many leading characters of a camera name carry the side.
const sidePrefixLen = 5

// ParseSide derives the side from a camera name such as "leftCamera".
//
// The side is the first five characters of the name (the whole name when it
// is shorter) with any trailing 'C' removed: "leftC" -> "left",
// "right" -> "right", "bodyC" -> "body". Names whose derived side is not one
// of left, right or body are rejected with ErrUnknownCamera.
func ParseSide(cameraName string) (Side, error) {
	prefix := cameraName
	if len(prefix) > sidePrefixLen {
		prefix = prefix[:sidePrefixLen]
	}
	s := Side(strings.TrimRight(prefix, "C"))
	switch s {
	case Left, Right, Body:
		return s, nil
	}
	return "", fmt.Errorf("%w: %q (derived side %q)", ErrUnknownCamera, cameraName, string(s))
}

// Title returns the side with its first letter upper-cased, e.g. "Left".
func (s Side) Title() string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

// ROIObject is the name of the ALF object holding this side's ROI geometry.
func (s Side) ROIObject() string {
	return string(s) + "ROIMotionEnergy"
}

// SeriesName is the name of the output time series, e.g. "LeftCameraMotionEnergy".
func (s Side) SeriesName() string {
	return s.Title() + "CameraMotionEnergy"
}
