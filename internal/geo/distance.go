// Package geo provides great-circle distance helpers for proximity search.
package geo

import "math"

// EarthRadiusKm is the mean earth radius used by Distance.
const EarthRadiusKm = 6371.0

// Point is a latitude/longitude pair in degrees.
type Point struct {
	Lat float64
	Lng float64
}

// Distance returns the haversine great-circle distance between a and b in kilometres.
func Distance(a, b Point) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := toRadians(b.Lat - a.Lat)
	dLng := toRadians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusKm * c
}

// Within reports whether b lies within radiusKm of a.
func Within(a, b Point, radiusKm float64) bool {
	return Distance(a, b) <= radiusKm
}

// ValidPoint reports whether p is a plausible coordinate.
func ValidPoint(p Point) bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
