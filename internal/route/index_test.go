package route

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClosestIndicesThreeVertexOracle(t *testing.T) {
	// Route along the equator with a literal elevation profile; the
	// Haversine distances themselves are the oracle thresholds.
	data := Data{
		Path:            []Coordinate{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 1}, {Lat: 0, Lon: 2}},
		Elevations:      []float64{0, 100, 50},
		TimeZones:       []float64{0, 0, 0},
		NumUniqueCoords: 3,
	}
	m, err := New(data, nil)
	require.NoError(t, err)

	d01 := m.Distances()[1] // vertex 0 -> 1
	d12 := m.Distances()[2] // vertex 1 -> 2

	query := []float64{0, d01 / 2, d01 + 1, d12}
	// Running totals: 0 (below d01), d01/2 (still below), 1.5*d01+1
	// (past d01, not yet d01+d12), then past both thresholds.
	assert.Equal(t, []int{0, 0, 1, 2}, m.ClosestIndices(query))
}

func TestClosestIndicesEdgeCases(t *testing.T) {
	t.Run("empty query returns empty result", func(t *testing.T) {
		assert.Empty(t, ClosestIndices(nil, []float64{10, 20}))
		assert.Empty(t, NewSweep([]float64{10, 20}).Map(nil))
	})

	t.Run("single vertex always maps to zero", func(t *testing.T) {
		segments := []float64{42}
		query := []float64{0, 5, 1e9}
		assert.Equal(t, []int{0, 0, 0}, ClosestIndices(query, segments))
		assert.Equal(t, []int{0, 0, 0}, NewSweep(segments).Map(query))
	})

	t.Run("zero-length final segment does not spin", func(t *testing.T) {
		segments := []float64{10, 0}
		assert.Equal(t, []int{1, 1}, ClosestIndices([]float64{50, 50}, segments))
	})

	t.Run("exact segment boundary does not advance", func(t *testing.T) {
		// advance requires strictly exceeding the segment distance
		segments := []float64{10, 10, 10}
		assert.Equal(t, []int{0, 1}, ClosestIndices([]float64{10, 0.001}, segments))
	})
}

func TestClosestIndicesSaturation(t *testing.T) {
	segments := []float64{100, 100, 100, 100}
	total := 400.0

	query := make([]float64, 50)
	for i := range query {
		query[i] = 25 // 1250m total, far past the route
	}
	got := ClosestIndices(query, segments)

	saturated := false
	travelled := 0.0
	for k, idx := range got {
		travelled += query[k]
		if travelled > total {
			saturated = true
		}
		if saturated {
			assert.Equal(t, len(segments)-1, idx, "index %d must stay at route end", k)
		}
	}
	assert.True(t, saturated, "test query must exhaust the route")
	assert.Equal(t, len(segments)-1, got[len(got)-1])
}

func TestClosestIndicesMonotonicOutput(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for trial := 0; trial < 50; trial++ {
		segments := randomSegments(rng, 2+rng.Intn(40))
		query := randomQuery(rng, rng.Intn(500))
		got := ClosestIndices(query, segments)
		require.Len(t, got, len(query))
		for k := 1; k < len(got); k++ {
			require.GreaterOrEqual(t, got[k], got[k-1],
				"trial %d: output must be non-decreasing at %d", trial, k)
			require.Less(t, got[k], len(segments), "trial %d: index in range", trial)
		}
	}
}

// TestSweepMatchesReference is the equivalence contract: the optimized
// sweep and the reference loop must return bit-identical index
// sequences for every valid input, whether the sweep consumes the query
// whole or in arbitrary batches.
func TestSweepMatchesReference(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 200; trial++ {
		segments := randomSegments(rng, 1+rng.Intn(60))
		query := randomQuery(rng, rng.Intn(1000))

		want := ClosestIndices(query, segments)

		t.Run("whole query", func(t *testing.T) {
			require.Equal(t, want, NewSweep(segments).Map(query))
		})

		t.Run("chunked query", func(t *testing.T) {
			sweep := NewSweep(segments)
			var got []int
			for lo := 0; lo < len(query); {
				hi := lo + 1 + rng.Intn(17)
				if hi > len(query) {
					hi = len(query)
				}
				got = append(got, sweep.Map(query[lo:hi])...)
				lo = hi
			}
			if len(query) == 0 {
				got = []int{}
				want = []int{}
			}
			require.Equal(t, want, got)
		})
	}
}

func TestSweepState(t *testing.T) {
	segments := []float64{10, 10, 10}
	sweep := NewSweep(segments)

	assert.Equal(t, 0, sweep.Index())
	assert.False(t, sweep.Done())

	sweep.Map([]float64{15})
	assert.Equal(t, 1, sweep.Index())
	assert.False(t, sweep.Done())

	sweep.Map([]float64{100})
	assert.Equal(t, 2, sweep.Index())
	assert.True(t, sweep.Done())

	// Saturated: further increments never move the index
	assert.Equal(t, []int{2, 2}, sweep.Map([]float64{1e6, 1e6}))
}

func randomSegments(rng *rand.Rand, n int) []float64 {
	segments := make([]float64, n)
	for i := range segments {
		// mix realistic lengths with degenerate zero segments
		if rng.Intn(10) > 0 {
			segments[i] = rng.Float64() * 500
		}
	}
	return segments
}

func randomQuery(rng *rand.Rand, m int) []float64 {
	query := make([]float64, m)
	for i := range query {
		if rng.Intn(8) > 0 {
			query[i] = rng.Float64() * 60
		}
	}
	return query
}
