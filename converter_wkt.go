package veloinfo

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
)

// LineString returns waypoints as orb geometry
func LineString(points []Point) orb.LineString {
	ls := make(orb.LineString, len(points))
	for i := range points {
		ls[i] = orb.Point{points[i].Lon, points[i].Lat}
	}
	return ls
}

// PrepareWKTLinestring returns WKT representation of waypoints
func PrepareWKTLinestring(points []Point) string {
	return wkt.MarshalString(LineString(points))
}

// PrepareWKTPoint returns WKT representation of Point
func PrepareWKTPoint(pt GeoPoint) string {
	return wkt.MarshalString(pt.Orb())
}
