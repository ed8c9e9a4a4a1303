// Package geo provides great-circle distance math for route analysis.
package geo

import "math"

// EarthRadiusMiles is the mean radius of Earth in miles.
const EarthRadiusMiles = 3958.8

// Coordinate is a WGS-84 latitude/longitude pair.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// DistanceMiles returns the haversine great-circle distance between two
// coordinates in miles.
func DistanceMiles(a, b Coordinate) float64 {
	dLat := degToRad(b.Lat - a.Lat)
	dLon := degToRad(b.Lon - a.Lon)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)

	h := sinLat*sinLat +
		math.Cos(degToRad(a.Lat))*math.Cos(degToRad(b.Lat))*sinLon*sinLon

	return 2 * EarthRadiusMiles * math.Asin(math.Sqrt(h))
}

func degToRad(deg float64) float64 {
	return deg * (math.Pi / 180.0)
}
