package route

// The index mapper turns cumulative travelled distance into route
// vertex indices. Both implementations below consume a forward-oriented
// table (entry i = distance from vertex i to vertex i+1) and treat each
// query element as an increment since the previous element, not an
// absolute position.
//
// Precondition, deliberately unchecked: query elements are non-negative
// (the running total is non-decreasing). Checking it would cost a pass
// per call and the whole point of the sweep is amortized O(M+N) over
// hundreds of thousands of ticks; violating it silently yields stale or
// skipped indices, never an error.
//
// ClosestIndices and Sweep must return bit-identical results for every
// valid input. They share the exact same sequence of floating-point
// adds and subtracts so the comparison against each segment length sees
// the same rounded value in both; the differential tests in
// index_test.go hold them to that.

// ClosestIndices is the reference implementation: a single monotonic
// sweep over query, advancing through segments and never moving
// backwards. Once the final vertex is reached the index saturates there
// and excess distance is no longer consumed ("route finished").
func ClosestIndices(query, segments []float64) []int {
	n := len(segments)
	result := make([]int, 0, len(query))
	idx := 0
	travelled := 0.0
	for _, d := range query {
		travelled += d
		for idx < n-1 && travelled > segments[idx] {
			travelled -= segments[idx]
			idx++
		}
		result = append(result, idx)
	}
	return result
}

// Sweep is the performance-optimized mapper used by the simulation
// loop. It keeps the sweep state (current vertex, distance carried into
// the current segment) across Map calls, so one Sweep can consume an
// entire run's query in tick-sized batches while preserving the
// amortized O(M+N) bound.
//
// A Sweep is not safe for concurrent use; independent Sweeps over the
// same table are.
type Sweep struct {
	segments  []float64
	idx       int
	travelled float64
}

// NewSweep starts a sweep at vertex 0 over a forward-oriented distance
// table. The table is not copied; it must not be mutated while the
// sweep is live.
func NewSweep(segments []float64) *Sweep {
	return &Sweep{segments: segments}
}

// Map consumes the next batch of distance increments and returns one
// vertex index per increment. Results are written into a fresh slice
// sized up front.
func (s *Sweep) Map(query []float64) []int {
	result := make([]int, len(query))
	segments := s.segments
	last := len(segments) - 1
	idx := s.idx
	travelled := s.travelled
	for k, d := range query {
		travelled += d
		for idx < last && travelled > segments[idx] {
			travelled -= segments[idx]
			idx++
		}
		result[k] = idx
	}
	s.idx = idx
	s.travelled = travelled
	return result
}

// Index reports the vertex the sweep currently sits on.
func (s *Sweep) Index() int { return s.idx }

// Done reports whether the sweep has saturated at the final vertex.
func (s *Sweep) Done() bool { return s.idx >= len(s.segments)-1 }
