package route

import (
	"errors"
	"fmt"
)

// ErrConfig marks construction failures: malformed or too-short routes,
// misaligned profile arrays, out-of-range lap sizes. Callers classify
// with errors.Is.
var ErrConfig = errors.New("invalid route configuration")

// Data is the raw material a route source hands to New: the discretized
// path, per-vertex elevation (meters) and UTC offset (seconds), and how
// many leading coordinates make up one lap of a tiled multi-lap course.
type Data struct {
	Path            []Coordinate
	Elevations      []float64
	TimeZones       []float64
	NumUniqueCoords int
}

// Model is the immutable route representation the simulator queries
// every tick. All geometry is derived once at construction; afterwards
// a Model is safe to share read-only across goroutines.
type Model struct {
	path       []Coordinate
	elevations []float64
	timeZones  []float64

	// distances holds the wraparound table (entry 0 closes the loop);
	// forward holds the same geometry reoriented so entry i leads from
	// vertex i to vertex i+1, which is what the index mapper consumes.
	// The conversion happens exactly once, here.
	distances []float64
	forward   []float64
	gradients []float64
	headings  []float64

	lapLength float64
	total     float64
}

// New derives a Model from raw route data. When current is non-nil and
// differs from the first vertex, the route is truncated to start at the
// vertex nearest current (mid-route restart); lap length is computed on
// the untruncated route first, so it is independent of where the
// vehicle restarts.
func New(data Data, current *Coordinate) (*Model, error) {
	n := len(data.Path)
	if n < 2 {
		return nil, fmt.Errorf("%w: route has %d coordinates, need at least 2", ErrConfig, n)
	}
	if len(data.Elevations) != n || len(data.TimeZones) != n {
		return nil, fmt.Errorf("%w: path has %d coordinates but %d elevations and %d time zones",
			ErrConfig, n, len(data.Elevations), len(data.TimeZones))
	}
	if data.NumUniqueCoords < 1 || data.NumUniqueCoords > n {
		return nil, fmt.Errorf("%w: num unique coords %d outside [1, %d]", ErrConfig, data.NumUniqueCoords, n)
	}

	lapLength := sum(SegmentDistances(data.Path[:data.NumUniqueCoords]))

	path := data.Path
	elevations := data.Elevations
	timeZones := data.TimeZones
	if current != nil && *current != path[0] {
		start := NearestIndex(*current, path)
		path = path[start:]
		elevations = elevations[start:]
		timeZones = timeZones[start:]
	}

	distances := SegmentDistances(path)
	m := &Model{
		path:       path,
		elevations: elevations,
		timeZones:  timeZones,
		distances:  distances,
		forward:    forwardFrom(distances),
		gradients:  Gradients(elevations, distances),
		headings:   Headings(path),
		lapLength:  lapLength,
	}
	// Start-to-end travel distance: every forward segment except the
	// final wrap entry.
	for _, d := range m.forward[:len(m.forward)-1] {
		m.total += d
	}
	return m, nil
}

// forwardFrom reorients a wraparound table so entry i is the distance
// from vertex i to vertex i+1. The final entry keeps the loop-closing
// distance; the mapper never consumes it, it only marks the wrap.
func forwardFrom(distances []float64) []float64 {
	n := len(distances)
	forward := make([]float64, n)
	for i := 0; i < n-1; i++ {
		forward[i] = distances[i+1]
	}
	if n > 0 {
		forward[n-1] = distances[0]
	}
	return forward
}

func sum(xs []float64) float64 {
	total := 0.0
	for _, x := range xs {
		total += x
	}
	return total
}

// Len returns the number of route vertices.
func (m *Model) Len() int { return len(m.path) }

// Path returns the (possibly truncated) route coordinates.
func (m *Model) Path() []Coordinate { return m.path }

// Elevations returns the per-vertex elevation profile in meters.
func (m *Model) Elevations() []float64 { return m.elevations }

// Distances returns the wraparound distance table (entry 0 closes the loop).
func (m *Model) Distances() []float64 { return m.distances }

// Gradients returns the per-segment gradient table.
func (m *Model) Gradients() []float64 { return m.gradients }

// Headings returns the per-vertex forward bearing in degrees.
func (m *Model) Headings() []float64 { return m.headings }

// LapLength is the length in meters of one repeating lap, fixed at
// construction from the untruncated route.
func (m *Model) LapLength() float64 { return m.lapLength }

// TotalDistance is the travel distance in meters from the (possibly
// truncated) route start to the final vertex.
func (m *Model) TotalDistance() float64 { return m.total }

// NewSweep starts an index sweep over this route's forward-oriented
// distance table.
func (m *Model) NewSweep() *Sweep { return NewSweep(m.forward) }

// ClosestIndices maps a single batch of distance increments to vertex
// indices, one fresh sweep from route start.
func (m *Model) ClosestIndices(query []float64) []int {
	return m.NewSweep().Map(query)
}

// GradientsAt gathers the gradient at each given vertex index.
func (m *Model) GradientsAt(indices []int) []float64 {
	return gather(m.gradients, indices)
}

// TimeZonesAt gathers the UTC offset in seconds at each given vertex index.
func (m *Model) TimeZonesAt(indices []int) []float64 {
	return gather(m.timeZones, indices)
}

// CoordinatesAt gathers the coordinate at each given vertex index.
func (m *Model) CoordinatesAt(indices []int) []Coordinate {
	out := make([]Coordinate, len(indices))
	for k, i := range indices {
		out[k] = m.path[i]
	}
	return out
}

// HeadingAt returns the forward bearing at one vertex index.
func (m *Model) HeadingAt(i int) float64 { return m.headings[i] }

func gather(values []float64, indices []int) []float64 {
	out := make([]float64, len(indices))
	for k, i := range indices {
		out[k] = values[i]
	}
	return out
}
