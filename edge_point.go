package veloinfo

import (
	"fmt"

	"github.com/paulmach/osm"
)

// Direction is the endpoint of an edge a traversal heads to
type Direction uint16

const (
	DIRECTION_SOURCE = Direction(iota + 1)
	DIRECTION_TARGET
)

func (iotaIdx Direction) String() string {
	return [...]string{"source", "target"}[iotaIdx-1]
}

// EdgePointKey is identity of directed traversal
type EdgePointKey struct {
	EdgeID    EdgeID
	Direction Direction
}

// EdgePoint is an edge bound to a travel direction.
// DIRECTION_TARGET means moving along drawing order of the way (source -> target),
// DIRECTION_SOURCE means moving against it.
type EdgePoint struct {
	*Edge
	Direction Direction
}

// NewEdgePoint returns traversal of edge which departs from given node
func NewEdgePoint(edge *Edge, from osm.NodeID) EdgePoint {
	if edge.SourceNodeID == from {
		return EdgePoint{Edge: edge, Direction: DIRECTION_TARGET}
	}
	return EdgePoint{Edge: edge, Direction: DIRECTION_SOURCE}
}

func (ep EdgePoint) String() string {
	return fmt.Sprintf("Edge: %d | From: %d | To: %d", ep.ID, ep.FromNodeID(), ep.ToNodeID())
}

// Key returns identity of traversal
func (ep EdgePoint) Key() EdgePointKey {
	return EdgePointKey{EdgeID: ep.ID, Direction: ep.Direction}
}

// Reverse returns traversal of the same edge in opposite direction
func (ep EdgePoint) Reverse() EdgePoint {
	if ep.Direction == DIRECTION_TARGET {
		return EdgePoint{Edge: ep.Edge, Direction: DIRECTION_SOURCE}
	}
	return EdgePoint{Edge: ep.Edge, Direction: DIRECTION_TARGET}
}

// againstDrawing reports whether traversal goes from target to source
func (ep EdgePoint) againstDrawing() bool {
	return ep.Direction == DIRECTION_SOURCE
}

// FromNodeID returns node being departed from
func (ep EdgePoint) FromNodeID() osm.NodeID {
	if ep.againstDrawing() {
		return ep.TargetNodeID
	}
	return ep.SourceNodeID
}

// ToNodeID returns node being reached
func (ep EdgePoint) ToNodeID() osm.NodeID {
	if ep.againstDrawing() {
		return ep.SourceNodeID
	}
	return ep.TargetNodeID
}

// From returns coordinates of node being departed from
func (ep EdgePoint) From() GeoPoint {
	if ep.againstDrawing() {
		return ep.Target
	}
	return ep.Source
}

// To returns coordinates of node being reached
func (ep EdgePoint) To() GeoPoint {
	if ep.againstDrawing() {
		return ep.Source
	}
	return ep.Target
}

// elevations returns elevations in travel order
func (ep EdgePoint) elevations() (start, end *float64) {
	if ep.againstDrawing() {
		return ep.ElevationEnd, ep.ElevationStart
	}
	return ep.ElevationStart, ep.ElevationEnd
}

// side returns side of the way whose infrastructure serves this traversal.
// Right-hand traffic: moving along drawing order uses the right side.
func (ep EdgePoint) side() Side {
	if ep.againstDrawing() {
		return SIDE_LEFT
	}
	return SIDE_RIGHT
}
