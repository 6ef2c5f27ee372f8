package veloinfo

import (
	"math"

	"github.com/paulmach/osm"
)

// Point is a waypoint of a route
type Point struct {
	Lon    float64    `json:"lon"`
	Lat    float64    `json:"lat"`
	NodeID osm.NodeID `json:"node_id"`
	WayID  osm.WayID  `json:"way_id"`
	// Length since previous waypoint (meters)
	Length float64 `json:"length"`
	// Distance from the first waypoint (meters)
	Distance float64 `json:"distance"`
}

func (pt Point) GeoPoint() GeoPoint {
	return GeoPoint{Lon: pt.Lon, Lat: pt.Lat}
}

// Route is the outcome of a search. Route without points means there is no route
type Route struct {
	ID         string
	Profile    string
	Points     []Point
	Cost       float64
	Expansions int
	// CapReached is set when the search stopped on expansion cap
	CapReached bool
}

// Found reports whether path exists
func (route Route) Found() bool {
	return len(route.Points) > 0
}

// LengthMeters returns total length of route
func (route Route) LengthMeters() float64 {
	if len(route.Points) == 0 {
		return 0
	}
	return route.Points[len(route.Points)-1].Distance
}

// LengthKm returns total length rounded to two decimals
func (route Route) LengthKm() float64 {
	return math.Round(route.LengthMeters()/10.0) / 100.0
}

// WayIDs returns ways covered by route in order of appearance
func (route Route) WayIDs() []osm.WayID {
	seen := make(map[osm.WayID]struct{})
	ways := []osm.WayID{}
	for _, pt := range route.Points {
		if pt.WayID == 0 {
			continue
		}
		if _, ok := seen[pt.WayID]; ok {
			continue
		}
		seen[pt.WayID] = struct{}{}
		ways = append(ways, pt.WayID)
	}
	return ways
}

// WithEndpoints returns waypoints framed by the query coordinates which usually lie off the graph
func (route Route) WithEndpoints(from, to GeoPoint) []Point {
	if !route.Found() {
		return nil
	}
	first := route.Points[0]
	last := route.Points[len(route.Points)-1]
	head := greatCircleDistance(from, first.GeoPoint())
	result := make([]Point, 0, len(route.Points)+2)
	result = append(result, Point{Lon: from.Lon, Lat: from.Lat})
	for _, pt := range route.Points {
		pt.Distance += head
		if len(result) == 1 {
			pt.Length = head
		}
		result = append(result, pt)
	}
	tail := greatCircleDistance(last.GeoPoint(), to)
	result = append(result, Point{Lon: to.Lon, Lat: to.Lat, Length: tail, Distance: last.Distance + head + tail})
	return result
}

// buildPoints maps traversals from start to end onto waypoints
func buildPoints(start osm.NodeID, startPt GeoPoint, path []EdgePoint) []Point {
	points := make([]Point, 0, len(path)+1)
	first := Point{Lon: startPt.Lon, Lat: startPt.Lat, NodeID: start}
	if len(path) > 0 {
		first.WayID = path[0].WayID
	}
	points = append(points, first)
	total := 0.0
	for _, ep := range path {
		to := ep.To()
		total += ep.LengthMeters
		points = append(points, Point{
			Lon:      to.Lon,
			Lat:      to.Lat,
			NodeID:   ep.ToNodeID(),
			WayID:    ep.WayID,
			Length:   ep.LengthMeters,
			Distance: total,
		})
	}
	return points
}
