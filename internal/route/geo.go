package route

import "math"

// EarthRadiusMeters is the mean Earth radius used for all great-circle math.
const EarthRadiusMeters = 6371000.0

// Coordinate is a (latitude, longitude) pair in degrees.
type Coordinate struct {
	Lat float64
	Lon float64
}

func toRad(deg float64) float64 { return deg * math.Pi / 180 }

// Haversine returns the great-circle distance in meters between two
// coordinates on a sphere of radius EarthRadiusMeters.
func Haversine(a, b Coordinate) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLon := toRad(b.Lon - a.Lon)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusMeters * c
}

// SegmentDistances builds the wraparound distance table for a path.
// Entry i is the Haversine distance from vertex (i-1 mod N) to vertex i,
// so entry 0 is the distance closing the loop from the last vertex back
// to the first. Callers that need an open route must special-case it.
func SegmentDistances(path []Coordinate) []float64 {
	n := len(path)
	dists := make([]float64, n)
	for i := 0; i < n; i++ {
		prev := path[(i+n-1)%n]
		dists[i] = Haversine(prev, path[i])
	}
	return dists
}

// bearingDeg returns the forward azimuth from a to b in degrees [0, 360).
func bearingDeg(a, b Coordinate) float64 {
	lat1 := toRad(a.Lat)
	lat2 := toRad(b.Lat)
	dLon := toRad(b.Lon - a.Lon)
	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)
	brng := math.Atan2(y, x) * 180 / math.Pi
	return math.Mod(brng+360, 360)
}

// Headings returns the forward bearing at every vertex. No bearing is
// defined past the last vertex, so the final element duplicates the
// second-to-last.
func Headings(path []Coordinate) []float64 {
	n := len(path)
	headings := make([]float64, n)
	if n < 2 {
		return headings
	}
	for i := 0; i < n-1; i++ {
		headings[i] = bearingDeg(path[i], path[i+1])
	}
	headings[n-1] = headings[n-2]
	return headings
}

// NearestIndex returns the index of the path vertex closest to coord,
// measured by summed squared lat/lon component differences in raw
// degrees. This planar shortcut is intentional: it is only ever used to
// pick a restart vertex, where the relative ordering of nearby vertices
// is all that matters. Ties resolve to the first index scanned.
func NearestIndex(coord Coordinate, path []Coordinate) int {
	best := 0
	bestDist2 := math.MaxFloat64
	for i, p := range path {
		dLat := p.Lat - coord.Lat
		dLon := p.Lon - coord.Lon
		d2 := dLat*dLat + dLon*dLon
		if d2 < bestDist2 {
			bestDist2 = d2
			best = i
		}
	}
	return best
}
