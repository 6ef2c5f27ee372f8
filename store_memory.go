package veloinfo

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/paulmach/osm"
)

type storedEdge struct {
	record   EdgeRecord
	routable bool
}

// MemoryStore keeps the whole graph in memory. Safe for concurrent use
type MemoryStore struct {
	mu        sync.RWMutex
	edges     map[EdgeID]*storedEdge
	adjacency map[osm.NodeID][]EdgeID
	ways      map[osm.WayID][]EdgeID
}

// NewMemoryStore returns empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		edges:     make(map[EdgeID]*storedEdge),
		adjacency: make(map[osm.NodeID][]EdgeID),
		ways:      make(map[osm.WayID][]EdgeID),
	}
}

// AddEdge inserts edge. Edge with the same identifier is replaced
func (store *MemoryStore) AddEdge(record EdgeRecord) {
	store.mu.Lock()
	defer store.mu.Unlock()
	if _, ok := store.edges[record.ID]; ok {
		store.removeEdge(record.ID)
	}
	store.edges[record.ID] = &storedEdge{
		record:   record,
		routable: parseEdgeTags(record.Tags).routable(),
	}
	store.adjacency[record.SourceNodeID] = append(store.adjacency[record.SourceNodeID], record.ID)
	if record.TargetNodeID != record.SourceNodeID {
		store.adjacency[record.TargetNodeID] = append(store.adjacency[record.TargetNodeID], record.ID)
	}
	store.ways[record.WayID] = append(store.ways[record.WayID], record.ID)
}

func (store *MemoryStore) removeEdge(edgeID EdgeID) {
	stored := store.edges[edgeID]
	delete(store.edges, edgeID)
	store.adjacency[stored.record.SourceNodeID] = withoutEdge(store.adjacency[stored.record.SourceNodeID], edgeID)
	store.adjacency[stored.record.TargetNodeID] = withoutEdge(store.adjacency[stored.record.TargetNodeID], edgeID)
	store.ways[stored.record.WayID] = withoutEdge(store.ways[stored.record.WayID], edgeID)
}

func withoutEdge(ids []EdgeID, edgeID EdgeID) []EdgeID {
	result := ids[:0]
	for _, id := range ids {
		if id != edgeID {
			result = append(result, id)
		}
	}
	return result
}

// ReplaceAll swaps content of the store with content of other one (data re-import).
// Other store must not be used afterwards
func (store *MemoryStore) ReplaceAll(other *MemoryStore) {
	other.mu.Lock()
	defer other.mu.Unlock()
	store.mu.Lock()
	defer store.mu.Unlock()
	store.edges, store.adjacency, store.ways = other.edges, other.adjacency, other.ways
}

// Len returns number of edges
func (store *MemoryStore) Len() int {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return len(store.edges)
}

// Records returns copy of every edge ordered by identifier
func (store *MemoryStore) Records() []EdgeRecord {
	store.mu.RLock()
	defer store.mu.RUnlock()
	records := make([]EdgeRecord, 0, len(store.edges))
	for _, stored := range store.edges {
		records = append(records, stored.record)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records
}

func (store *MemoryStore) NeighborsOf(ctx context.Context, nodeID osm.NodeID) ([]EdgeRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	store.mu.RLock()
	defer store.mu.RUnlock()
	ids := store.adjacency[nodeID]
	records := make([]EdgeRecord, 0, len(ids))
	for _, edgeID := range ids {
		records = append(records, store.edges[edgeID].record)
	}
	return records, nil
}

func (store *MemoryStore) NearestRoutableNode(ctx context.Context, lon, lat, radius float64) (osm.NodeID, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if radius <= 0 {
		radius = defaultNearestRadius
	}
	query := GeoPoint{Lon: lon, Lat: lat}
	minPt, maxPt := boundingBox(query, radius)
	store.mu.RLock()
	defer store.mu.RUnlock()
	var found osm.NodeID
	best := math.Inf(1)
	consider := func(nodeID osm.NodeID, pt GeoPoint) {
		if !insideBox(pt, minPt, maxPt) {
			return
		}
		d := greatCircleDistance(query, pt)
		if d > radius {
			return
		}
		if d < best || (d == best && nodeID < found) {
			best = d
			found = nodeID
		}
	}
	for _, stored := range store.edges {
		if !stored.routable {
			continue
		}
		consider(stored.record.SourceNodeID, stored.record.Source)
		consider(stored.record.TargetNodeID, stored.record.Target)
	}
	if math.IsInf(best, 1) {
		return 0, &CoordinateNotFoundError{Lon: lon, Lat: lat, Radius: radius}
	}
	return found, nil
}

func (store *MemoryStore) NodesOfWays(ctx context.Context, wayIDs []osm.WayID) ([]osm.NodeID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	store.mu.RLock()
	defer store.mu.RUnlock()
	return uniqueNodes(store.wayRecords(wayIDs)), nil
}

func (store *MemoryStore) wayRecords(wayIDs []osm.WayID) []EdgeRecord {
	records := []EdgeRecord{}
	for _, wayID := range wayIDs {
		for _, edgeID := range store.ways[wayID] {
			records = append(records, store.edges[edgeID].record)
		}
	}
	return records
}

// mutateWays applies fn to every edge of the ways and returns their endpoints
func (store *MemoryStore) mutateWays(ctx context.Context, wayIDs []osm.WayID, fn func(record *EdgeRecord)) ([]osm.NodeID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	store.mu.Lock()
	defer store.mu.Unlock()
	for _, wayID := range wayIDs {
		for _, edgeID := range store.ways[wayID] {
			fn(&store.edges[edgeID].record)
		}
	}
	return uniqueNodes(store.wayRecords(wayIDs)), nil
}

func (store *MemoryStore) SetScore(ctx context.Context, wayIDs []osm.WayID, score float64) ([]osm.NodeID, error) {
	return store.mutateWays(ctx, wayIDs, func(record *EdgeRecord) {
		// New pointer each time, records handed out earlier keep their value
		s := score
		record.Score = &s
	})
}

func (store *MemoryStore) SetRoadWork(ctx context.Context, wayIDs []osm.WayID, roadWork bool) ([]osm.NodeID, error) {
	return store.mutateWays(ctx, wayIDs, func(record *EdgeRecord) {
		record.RoadWork = roadWork
	})
}

func (store *MemoryStore) SetCitySnow(ctx context.Context, wayIDs []osm.WayID, snow bool) ([]osm.NodeID, error) {
	return store.mutateWays(ctx, wayIDs, func(record *EdgeRecord) {
		record.CitySnow = snow
	})
}
