package motionenergy

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestROIFromPosition(t *testing.T) {
	roi, err := ROIFromPosition([]float64{100, 50, 10, 20})
	require.NoError(t, err)
	assert.Equal(t, ROI{Width: 100, Height: 50, X: 10, Y: 20}, roi)
	assert.Equal(t, "[20:70, 10:110]", roi.RowColSlice())
}

func TestROIFromPosition_Malformed(t *testing.T) {
	tests := map[string][]float64{
		"empty":      nil,
		"too short":  {100, 50, 10},
		"too long":   {100, 50, 10, 20, 1},
		"fractional": {100.5, 50, 10, 20},
		"negative":   {100, 50, -1, 20},
		"nan":        {100, math.NaN(), 10, 20},
		"inf":        {math.Inf(1), 50, 10, 20},
	}
	for name, pos := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ROIFromPosition(pos)
			assert.ErrorIs(t, err, ErrMalformedPosition)
		})
	}
}

func TestDescription(t *testing.T) {
	desc := Description(Left, ROI{Width: 100, Height: 50, X: 10, Y: 20})

	for _, want := range []string{
		"left camera video",
		"100 pixels wide",
		"50 pixels tall",
		"(10, 20)",
		"[20:70, 10:110]",
		"CAUTION",
	} {
		assert.Contains(t, desc, want)
	}
	assert.False(t, strings.HasPrefix(desc, " "), "description should not start with indentation")
}
