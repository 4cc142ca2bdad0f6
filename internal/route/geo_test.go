package route

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// One degree of arc along a great circle of the mean-radius sphere.
const oneDegreeEquator = EarthRadiusMeters * math.Pi / 180

func TestHaversine(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Coordinate
		expected float64
	}{
		{
			name:     "same point is zero",
			a:        Coordinate{Lat: 38.9, Lon: -95.7},
			b:        Coordinate{Lat: 38.9, Lon: -95.7},
			expected: 0,
		},
		{
			name:     "one degree longitude at equator",
			a:        Coordinate{Lat: 0, Lon: 0},
			b:        Coordinate{Lat: 0, Lon: 1},
			expected: oneDegreeEquator,
		},
		{
			name:     "one degree latitude anywhere",
			a:        Coordinate{Lat: 45, Lon: 10},
			b:        Coordinate{Lat: 46, Lon: 10},
			expected: oneDegreeEquator,
		},
		{
			name:     "symmetric",
			a:        Coordinate{Lat: 0, Lon: 2},
			b:        Coordinate{Lat: 0, Lon: 0},
			expected: 2 * oneDegreeEquator,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Haversine(tt.a, tt.b), 0.01)
		})
	}
}

func TestSegmentDistancesWraparound(t *testing.T) {
	// Closed square-ish loop on the equator: entry 0 must be the
	// distance from the last vertex back to the first.
	loop := []Coordinate{
		{Lat: 0, Lon: 0},
		{Lat: 0, Lon: 1},
		{Lat: 1, Lon: 1},
		{Lat: 1, Lon: 0},
	}
	dists := SegmentDistances(loop)
	require.Len(t, dists, 4)

	assert.InDelta(t, Haversine(loop[3], loop[0]), dists[0], 1e-9,
		"entry 0 is the loop-closing distance")
	for i := 1; i < 4; i++ {
		assert.InDelta(t, Haversine(loop[i-1], loop[i]), dists[i], 1e-9)
	}
	for i, d := range dists {
		assert.GreaterOrEqual(t, d, 0.0, "distance %d must be non-negative", i)
	}
}

func TestHeadings(t *testing.T) {
	t.Run("due east along equator", func(t *testing.T) {
		headings := Headings([]Coordinate{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 1}})
		require.Len(t, headings, 2)
		assert.InDelta(t, 90.0, headings[0], 1e-9)
		assert.Equal(t, headings[0], headings[1], "last element duplicates second-to-last")
	})

	t.Run("due north", func(t *testing.T) {
		headings := Headings([]Coordinate{{Lat: 0, Lon: 0}, {Lat: 1, Lon: 0}})
		assert.InDelta(t, 0.0, headings[0], 1e-9)
	})

	t.Run("due south stays in range", func(t *testing.T) {
		headings := Headings([]Coordinate{{Lat: 1, Lon: 0}, {Lat: 0, Lon: 0}})
		assert.InDelta(t, 180.0, headings[0], 1e-9)
	})

	t.Run("due west wraps to 270", func(t *testing.T) {
		headings := Headings([]Coordinate{{Lat: 0, Lon: 1}, {Lat: 0, Lon: 0}})
		assert.InDelta(t, 270.0, headings[0], 1e-9)
	})

	t.Run("all bearings in [0,360)", func(t *testing.T) {
		path := []Coordinate{
			{Lat: 38.9, Lon: -95.7},
			{Lat: 38.8, Lon: -95.8},
			{Lat: 38.7, Lon: -95.6},
			{Lat: 38.9, Lon: -95.5},
		}
		for i, h := range Headings(path) {
			assert.GreaterOrEqual(t, h, 0.0, "heading %d", i)
			assert.Less(t, h, 360.0, "heading %d", i)
		}
	})
}

func TestNearestIndex(t *testing.T) {
	path := []Coordinate{
		{Lat: 0, Lon: 0},
		{Lat: 0, Lon: 1},
		{Lat: 0, Lon: 2},
		{Lat: 0, Lon: 3},
	}

	tests := []struct {
		name     string
		coord    Coordinate
		expected int
	}{
		{"exact match", Coordinate{Lat: 0, Lon: 2}, 2},
		{"near a vertex", Coordinate{Lat: 0.01, Lon: 0.99}, 1},
		{"before route start", Coordinate{Lat: 0, Lon: -5}, 0},
		{"past route end", Coordinate{Lat: 0, Lon: 99}, 3},
		{"equidistant tie takes first index", Coordinate{Lat: 0, Lon: 1.5}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NearestIndex(tt.coord, path))
		})
	}
}
