package veloinfo

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

const (
	earthRadiusMeters = 6371000.0
	pi180             = math.Pi / 180.0
)

// GeoPoint representation of point on Earth
type GeoPoint struct {
	Lat float64
	Lon float64
}

// String returns pretty printed value for for GeoPoint
func (gp GeoPoint) String() string {
	return fmt.Sprintf("Lon: %f | Lat: %f", gp.Lon, gp.Lat)
}

// Orb returns GeoPoint as orb.Point (X == Lon, Y == Lat)
func (gp GeoPoint) Orb() orb.Point {
	return orb.Point{gp.Lon, gp.Lat}
}

// degreesToRadians deg = r * pi / 180
func degreesToRadians(d float64) float64 {
	return d * pi180
}

// greatCircleDistance returns distance between two geo-points (meters)
func greatCircleDistance(p, q GeoPoint) float64 {
	lat1 := degreesToRadians(p.Lat)
	lon1 := degreesToRadians(p.Lon)
	lat2 := degreesToRadians(q.Lat)
	lon2 := degreesToRadians(q.Lon)
	diffLat := lat2 - lat1
	diffLon := lon2 - lon1
	a := math.Pow(math.Sin(diffLat/2), 2) + math.Cos(lat1)*math.Cos(lat2)*math.Pow(math.Sin(diffLon/2), 2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return c * earthRadiusMeters
}

// getSphericalLength returns length for given line (meters)
func getSphericalLength(line []GeoPoint) float64 {
	totalLength := 0.0
	if len(line) < 2 {
		return totalLength
	}
	for i := 1; i < len(line); i++ {
		totalLength += greatCircleDistance(line[i-1], line[i])
	}
	return totalLength
}

// boundingBox returns lon/lat box which contains every point within radius (meters) around center.
// Used as a cheap prefilter before exact great-circle checks.
func boundingBox(center GeoPoint, radius float64) (minPt, maxPt GeoPoint) {
	dLat := radius / earthRadiusMeters / pi180
	cosLat := math.Cos(degreesToRadians(center.Lat))
	if cosLat < 1e-9 {
		cosLat = 1e-9
	}
	dLon := dLat / cosLat
	return GeoPoint{Lat: center.Lat - dLat, Lon: center.Lon - dLon}, GeoPoint{Lat: center.Lat + dLat, Lon: center.Lon + dLon}
}

// insideBox checks if point is inside of given lon/lat box (borders included)
func insideBox(pt, minPt, maxPt GeoPoint) bool {
	return pt.Lat >= minPt.Lat && pt.Lat <= maxPt.Lat && pt.Lon >= minPt.Lon && pt.Lon <= maxPt.Lon
}
