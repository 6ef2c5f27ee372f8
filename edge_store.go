package veloinfo

import (
	"context"

	"github.com/paulmach/osm"
)

const defaultNearestRadius = 1000.0

// EdgeStore is the source of graph data
type EdgeStore interface {
	// NeighborsOf returns every edge touching the node
	NeighborsOf(ctx context.Context, nodeID osm.NodeID) ([]EdgeRecord, error)
	// NearestRoutableNode returns closest node of a bicycle routable edge. When nothing is found
	// within radius (meters) *CoordinateNotFoundError is returned
	NearestRoutableNode(ctx context.Context, lon, lat, radius float64) (osm.NodeID, error)
	// NodesOfWays returns endpoints of every edge of given ways
	NodesOfWays(ctx context.Context, wayIDs []osm.WayID) ([]osm.NodeID, error)
}

// FactStore is an EdgeStore accepting mutations of facts consumed by cost model.
// Every mutation returns nodes whose neighbor lists became stale
type FactStore interface {
	EdgeStore
	SetScore(ctx context.Context, wayIDs []osm.WayID, score float64) ([]osm.NodeID, error)
	SetRoadWork(ctx context.Context, wayIDs []osm.WayID, roadWork bool) ([]osm.NodeID, error)
	SetCitySnow(ctx context.Context, wayIDs []osm.WayID, snow bool) ([]osm.NodeID, error)
}

// uniqueNodes collects endpoints of edges without duplicates, order of first appearance is kept
func uniqueNodes(records []EdgeRecord) []osm.NodeID {
	seen := make(map[osm.NodeID]struct{}, len(records)*2)
	nodes := make([]osm.NodeID, 0, len(records)*2)
	for i := range records {
		for _, nodeID := range []osm.NodeID{records[i].SourceNodeID, records[i].TargetNodeID} {
			if _, ok := seen[nodeID]; ok {
				continue
			}
			seen[nodeID] = struct{}{}
			nodes = append(nodes, nodeID)
		}
	}
	return nodes
}
