package veloinfo

import (
	"container/list"
	"context"
	"log/slog"
	"time"

	"github.com/paulmach/osm"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/semaphore"
)

const (
	defaultCacheCapacity = 3_000_000
	defaultLockTimeout   = 5 * time.Second
	defaultCacheName     = "neighbors"
)

// NeighborCache memoizes per-node traversals fetched from an EdgeStore.
//
// Every operation is atomic under a single exclusive lock, but lookup followed by population is not:
// concurrent searches may populate the same node twice, the later insert wins.
// A population which overlaps any invalidation is returned to the caller but not cached.
// When capacity is exceeded the oldest inserted node is evicted.
type NeighborCache struct {
	store       EdgeStore
	capacity    int
	lockTimeout time.Duration
	logger      *slog.Logger
	size        prometheus.Gauge

	// Weighted semaphore of size 1 is a mutex with bounded acquisition
	lock    *semaphore.Weighted
	entries map[osm.NodeID]*list.Element
	order   *list.List
	// Bumped by every invalidation
	generation uint64
}

type cacheEntry struct {
	nodeID osm.NodeID
	points []EdgePoint
}

// NewNeighborCache returns empty cache in front of the store
func NewNeighborCache(store EdgeStore, options ...func(*NeighborCache)) *NeighborCache {
	cache := &NeighborCache{
		store:       store,
		capacity:    defaultCacheCapacity,
		lockTimeout: defaultLockTimeout,
		logger:      slog.Default(),
		size:        cacheSize.WithLabelValues(defaultCacheName),
		lock:        semaphore.NewWeighted(1),
		entries:     make(map[osm.NodeID]*list.Element),
		order:       list.New(),
	}
	for _, o := range options {
		o(cache)
	}
	return cache
}

// WithCacheCapacity sets maximum number of cached nodes
func WithCacheCapacity(capacity int) func(*NeighborCache) {
	return func(cache *NeighborCache) {
		if capacity > 0 {
			cache.capacity = capacity
		}
	}
}

// WithLockTimeout sets how long invalidation waits for the lock before giving up
func WithLockTimeout(timeout time.Duration) func(*NeighborCache) {
	return func(cache *NeighborCache) {
		if timeout > 0 {
			cache.lockTimeout = timeout
		}
	}
}

// WithCacheName sets label of the cache size gauge. Needed when a process holds several caches
func WithCacheName(name string) func(*NeighborCache) {
	return func(cache *NeighborCache) {
		if name != "" {
			cache.size = cacheSize.WithLabelValues(name)
		}
	}
}

// WithCacheLogger sets logger
func WithCacheLogger(logger *slog.Logger) func(*NeighborCache) {
	return func(cache *NeighborCache) {
		if logger != nil {
			cache.logger = logger
		}
	}
}

// Get returns cached traversals departing from the node
func (cache *NeighborCache) Get(ctx context.Context, nodeID osm.NodeID) ([]EdgePoint, bool) {
	if err := cache.lock.Acquire(ctx, 1); err != nil {
		return nil, false
	}
	defer cache.lock.Release(1)
	elem, ok := cache.entries[nodeID]
	if !ok {
		cacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}
	cacheLookups.WithLabelValues("hit").Inc()
	return elem.Value.(*cacheEntry).points, true
}

// Populate queries the store for edges touching the node, builds traversals oriented away from it
// and caches them unless an invalidation ran meanwhile. Store failures are returned wrapped into
// ErrStoreUnavailable and nothing is cached
func (cache *NeighborCache) Populate(ctx context.Context, nodeID osm.NodeID) ([]EdgePoint, error) {
	if err := cache.lock.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	generation := cache.generation
	cache.lock.Release(1)

	records, err := cache.store.NeighborsOf(ctx, nodeID)
	if err != nil {
		storeErrors.Inc()
		return nil, errors.Wrapf(ErrStoreUnavailable, "Can't fetch neighbors of node %d: %s", nodeID, err.Error())
	}
	points := make([]EdgePoint, 0, len(records))
	for i := range records {
		if records[i].SourceNodeID != nodeID && records[i].TargetNodeID != nodeID {
			continue
		}
		points = append(points, NewEdgePoint(NewEdge(records[i]), nodeID))
	}
	if err := cache.lock.Acquire(ctx, 1); err != nil {
		return points, nil
	}
	defer cache.lock.Release(1)
	if cache.generation != generation {
		// Records may predate the invalidation
		cacheInvalidations.WithLabelValues("stale").Inc()
		return points, nil
	}
	cache.insert(nodeID, points)
	return points, nil
}

// Insert stores traversals of the node. Existing node keeps its insertion position
func (cache *NeighborCache) Insert(ctx context.Context, nodeID osm.NodeID, points []EdgePoint) {
	if err := cache.lock.Acquire(ctx, 1); err != nil {
		return
	}
	defer cache.lock.Release(1)
	cache.insert(nodeID, points)
}

// insert expects the lock to be held
func (cache *NeighborCache) insert(nodeID osm.NodeID, points []EdgePoint) {
	if elem, ok := cache.entries[nodeID]; ok {
		elem.Value.(*cacheEntry).points = points
		return
	}
	for cache.order.Len() >= cache.capacity {
		oldest := cache.order.Front()
		evicted := cache.order.Remove(oldest).(*cacheEntry)
		delete(cache.entries, evicted.nodeID)
		cacheEvictions.Inc()
		cache.logger.Debug("neighbor cache eviction", "node_id", evicted.nodeID)
	}
	cache.entries[nodeID] = cache.order.PushBack(&cacheEntry{nodeID: nodeID, points: points})
	cache.size.Set(float64(cache.order.Len()))
}

// Neighbors returns traversals departing from the node, querying the store on miss.
// Store failure is logged and gives no neighbors
func (cache *NeighborCache) Neighbors(ctx context.Context, nodeID osm.NodeID) []EdgePoint {
	if points, ok := cache.Get(ctx, nodeID); ok {
		return points
	}
	points, err := cache.Populate(ctx, nodeID)
	if err != nil {
		cache.logger.Warn("neighbors unavailable", "node_id", nodeID, "error", err)
		return nil
	}
	return points
}

// acquireBounded takes the lock waiting no longer than lock timeout
func (cache *NeighborCache) acquireBounded() error {
	ctx, cancel := context.WithTimeout(context.Background(), cache.lockTimeout)
	defer cancel()
	if err := cache.lock.Acquire(ctx, 1); err != nil {
		cacheInvalidations.WithLabelValues("skipped").Inc()
		return errors.Wrapf(ErrLockTimeout, "waited %v", cache.lockTimeout)
	}
	return nil
}

// Remove drops cached traversals of the node
func (cache *NeighborCache) Remove(nodeID osm.NodeID) error {
	return cache.RemoveNodes([]osm.NodeID{nodeID})
}

// RemoveNodes drops cached traversals of every node under one lock acquisition.
// On lock timeout nothing is removed
func (cache *NeighborCache) RemoveNodes(nodeIDs []osm.NodeID) error {
	if err := cache.acquireBounded(); err != nil {
		cache.logger.Error("skipping nodes invalidation", "nodes", len(nodeIDs), "error", err)
		return err
	}
	defer cache.lock.Release(1)
	cache.generation++
	for _, nodeID := range nodeIDs {
		elem, ok := cache.entries[nodeID]
		if !ok {
			continue
		}
		cache.order.Remove(elem)
		delete(cache.entries, nodeID)
		cacheInvalidations.WithLabelValues("node").Inc()
	}
	cache.size.Set(float64(cache.order.Len()))
	return nil
}

// Clear drops everything. On lock timeout the cache is left untouched
func (cache *NeighborCache) Clear() error {
	if err := cache.acquireBounded(); err != nil {
		cache.logger.Error("skipping cache clear", "error", err)
		return err
	}
	defer cache.lock.Release(1)
	cache.generation++
	cache.entries = make(map[osm.NodeID]*list.Element)
	cache.order.Init()
	cacheInvalidations.WithLabelValues("clear").Inc()
	cache.size.Set(0)
	return nil
}

// Len returns number of cached nodes
func (cache *NeighborCache) Len() int {
	if err := cache.lock.Acquire(context.Background(), 1); err != nil {
		return 0
	}
	defer cache.lock.Release(1)
	return cache.order.Len()
}
