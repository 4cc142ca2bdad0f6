package route

import "math"

// Gradients returns Δelevation/distance for each segment, aligned with
// the wraparound distance table: gradient[i] compares elevation[i] with
// elevation[(i-1) mod N]. Positive means uphill. Zero-length segments
// would divide to NaN or ±Inf; those entries are replaced with 0, since
// downstream accumulation cannot tolerate non-finite values.
func Gradients(elevations, distances []float64) []float64 {
	n := len(elevations)
	gradients := make([]float64, n)
	for i := 0; i < n; i++ {
		prev := elevations[(i+n-1)%n]
		g := (elevations[i] - prev) / distances[i]
		if math.IsNaN(g) || math.IsInf(g, 0) {
			g = 0
		}
		gradients[i] = g
	}
	return gradients
}
