package motionenergy

import (
	"errors"
	"fmt"
	"math"
)

// ErrMalformedPosition is returned when a position attribute is not four
// non-negative integers.
var ErrMalformedPosition = errors.New("motionenergy: malformed ROI position")

// ROI is a rectangle in video pixel coordinates. X and Y locate the top-left
// corner; X runs along the frame width.
type ROI struct {
	Width  int
	Height int
	X      int
	Y      int
}

// ROIFromPosition unpacks a (width, height, x, y) position vector.
func ROIFromPosition(position []float64) (ROI, error) {
	if len(position) != 4 {
		return ROI{}, fmt.Errorf("%w: want 4 values, got %d", ErrMalformedPosition, len(position))
	}
	var v [4]int
	for i, p := range position {
		if math.IsNaN(p) || math.IsInf(p, 0) || p != math.Trunc(p) || p < 0 {
			return ROI{}, fmt.Errorf("%w: value %d is %v", ErrMalformedPosition, i, p)
		}
		v[i] = int(p)
	}
	return ROI{Width: v[0], Height: v[1], X: v[2], Y: v[3]}, nil
}

// RowColSlice returns the region in row-major [row, col] order, as used when
// a frame is loaded as a height x width array: [y:y+height, x:x+width].
func (r ROI) RowColSlice() string {
	return fmt.Sprintf("[%d:%d, %d:%d]", r.Y, r.Y+r.Height, r.X, r.X+r.Width)
}
