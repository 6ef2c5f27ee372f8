package veloinfo

import (
	"math"

	"github.com/paulmach/osm"
)

type EdgeID int64

// EdgeRecord is an undirected edge as it is kept by edge stores
type EdgeRecord struct {
	ID             EdgeID
	WayID          osm.WayID
	SourceNodeID   osm.NodeID
	TargetNodeID   osm.NodeID
	Source         GeoPoint
	Target         GeoPoint
	LengthMeters   float64
	Tags           osm.Tags
	InBicycleRoute bool
	// Consensus score: nil or -1 means "no data yet", 0 means closed, (0, 1] is quality
	Score    *float64
	RoadWork bool
	CitySnow bool
	// Overrides flags derived from `winter_service` and `cycleway:*:conditional` tags when non-nil
	WinterClosure  *WinterClosure
	ElevationStart *float64
	ElevationEnd   *float64
}

// Edge is immutable routing view of EdgeRecord with tags parsed once.
// Two edges are the same edge when their identifiers are equal.
type Edge struct {
	EdgeRecord
	parsed EdgeTags
}

// NewEdge prepares record for routing. Record must not be modified afterwards.
// Length is never shorter than the straight line between endpoints, heuristic relies on it
func NewEdge(record EdgeRecord) *Edge {
	record.LengthMeters = math.Max(record.LengthMeters, greatCircleDistance(record.Source, record.Target))
	return &Edge{
		EdgeRecord: record,
		parsed:     parseEdgeTags(record.Tags),
	}
}

// snowClosure returns effective winter closure flags
func (edge *Edge) snowClosure() WinterClosure {
	if edge.WinterClosure != nil {
		return *edge.WinterClosure
	}
	closure := edge.parsed.SnowClosure
	closure.Edge = closure.Edge || edge.parsed.WinterServiceNo
	return closure
}
