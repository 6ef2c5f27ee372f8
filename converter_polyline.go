package veloinfo

import (
	"github.com/twpayne/go-polyline"
)

// PreparePolyline returns encoded polyline (precision 5, lat/lon order) of waypoints
func PreparePolyline(points []Point) string {
	coords := make([][]float64, len(points))
	for i := range points {
		coords[i] = []float64{points[i].Lat, points[i].Lon}
	}
	return string(polyline.EncodeCoords(coords))
}
