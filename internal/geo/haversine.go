// Package geo computes great-circle distances between GPS fixes.
package geo

import "math"

// EarthRadiusNM is the mean Earth radius in nautical miles
const EarthRadiusNM = 3440.065

// Point is a position in decimal degrees
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Haversine returns the great-circle distance in nautical miles between two
// positions given in degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := radians(lat1)
	phi2 := radians(lat2)
	dPhi := radians(lat2 - lat1)
	dLambda := radians(lon2 - lon1)

	sinPhi := math.Sin(dPhi / 2)
	sinLambda := math.Sin(dLambda / 2)
	a := sinPhi*sinPhi + math.Cos(phi1)*math.Cos(phi2)*sinLambda*sinLambda

	// Rounding can push a slightly above 1 for antipodal points
	if a > 1 {
		a = 1
	}
	return EarthRadiusNM * 2 * math.Asin(math.Sqrt(a))
}

// MeanCenter returns the arithmetic mean of the points, used to center maps.
// ok is false for an empty slice.
func MeanCenter(points []Point) (Point, bool) {
	if len(points) == 0 {
		return Point{}, false
	}
	var c Point
	for _, p := range points {
		c.Lat += p.Lat
		c.Lon += p.Lon
	}
	n := float64(len(points))
	return Point{Lat: c.Lat / n, Lon: c.Lon / n}, true
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
