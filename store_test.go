package veloinfo

import (
	"context"
	"sort"
	"testing"

	"github.com/paulmach/osm"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sortedNodes(nodes []osm.NodeID) []osm.NodeID {
	sorted := append([]osm.NodeID{}, nodes...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return sorted
}

func recordIDs(records []EdgeRecord) []EdgeID {
	ids := make([]EdgeID, len(records))
	for i := range records {
		ids[i] = records[i].ID
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// checkFactStore runs the same scenario against any store loaded with fixture records
func checkFactStore(t *testing.T, store FactStore) {
	ctx := context.Background()

	records, err := store.NeighborsOf(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []EdgeID{1, 2, 7}, recordIDs(records))

	records, err = store.NeighborsOf(ctx, 999)
	require.NoError(t, err)
	assert.Empty(t, records)

	nodes, err := store.NodesOfWays(ctx, []osm.WayID{fixtureStreetWay, fixtureConnector})
	require.NoError(t, err)
	assert.Equal(t, []osm.NodeID{1, 2, 3, 5}, sortedNodes(nodes))

	nodes, err = store.SetScore(ctx, []osm.WayID{fixtureCyclewayB}, 0)
	require.NoError(t, err)
	assert.Equal(t, []osm.NodeID{4, 5, 6}, sortedNodes(nodes))
	records, err = store.NeighborsOf(ctx, 5)
	require.NoError(t, err)
	for _, record := range records {
		if record.WayID != fixtureCyclewayB {
			assert.Nil(t, record.Score)
			continue
		}
		require.NotNil(t, record.Score, "zero score must survive storage")
		assert.Equal(t, 0.0, *record.Score)
	}

	nodes, err = store.SetRoadWork(ctx, []osm.WayID{fixtureConnector}, true)
	require.NoError(t, err)
	assert.Equal(t, []osm.NodeID{2, 5}, sortedNodes(nodes))
	nodes, err = store.SetCitySnow(ctx, []osm.WayID{fixtureConnector, 12345}, true)
	require.NoError(t, err)
	assert.Equal(t, []osm.NodeID{2, 5}, sortedNodes(nodes), "unknown ways are ignored")
	records, err = store.NeighborsOf(ctx, 2)
	require.NoError(t, err)
	for _, record := range records {
		assert.Equal(t, record.WayID == fixtureConnector, record.RoadWork)
		assert.Equal(t, record.WayID == fixtureConnector, record.CitySnow)
	}

	// Closest node to a point slightly off node 5
	nodeID, err := store.NearestRoutableNode(ctx, -73.5691, 45.5011, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 5, nodeID)

	_, err = store.NearestRoutableNode(ctx, 2.35, 48.85, 500)
	var notFound *CoordinateNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, 500.0, notFound.Radius)
	assert.True(t, errors.Is(err, ErrNodeNotFound))
}

func TestMemoryStore(t *testing.T) {
	checkFactStore(t, newFixtureStore())
}

func TestMemoryStoreReplaceEdge(t *testing.T) {
	store := newFixtureStore()
	require.Equal(t, 8, store.Len())
	moved := fixtureEdge(7, fixtureConnector, 1, 5, osm.Tags{{Key: "highway", Value: "residential"}})
	store.AddEdge(moved)
	assert.Equal(t, 8, store.Len())

	records, err := store.NeighborsOf(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, []EdgeID{1, 2}, recordIDs(records))
	records, err = store.NeighborsOf(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []EdgeID{1, 3, 7}, recordIDs(records))

	other := NewMemoryStore()
	other.AddEdge(fixtureRecords()[0])
	store.ReplaceAll(other)
	assert.Equal(t, 1, store.Len())
	assert.Len(t, store.Records(), 1)
}

func TestNearestSkipsUnroutableEdges(t *testing.T) {
	store := NewMemoryStore()
	footway := fixtureEdge(1, 1, 1, 2, osm.Tags{{Key: "highway", Value: "footway"}})
	street := fixtureEdge(2, 2, 4, 5, osm.Tags{{Key: "highway", Value: "residential"}})
	store.AddEdge(footway)
	store.AddEdge(street)
	// Node 1 is the closest one but it belongs to a footway only
	nodeID, err := store.NearestRoutableNode(context.Background(), -73.570, 45.500, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 4, nodeID)
}

func TestBadgerStore(t *testing.T) {
	store, err := OpenBadgerStore("", nil)
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.Import(fixtureRecords()))
	checkFactStore(t, store)
}

func TestBadgerStoreRoundTrip(t *testing.T) {
	store, err := OpenBadgerStore(t.TempDir(), discardLogger())
	require.NoError(t, err)
	defer store.Close()

	record := fixtureEdge(42, 7, 1, 2, osm.Tags{{Key: "highway", Value: "cycleway"}, {Key: "surface", Value: "gravel"}})
	record.InBicycleRoute = true
	record.Score = floatPtr(0)
	record.WinterClosure = &WinterClosure{}
	record.ElevationStart = floatPtr(0)
	record.ElevationEnd = floatPtr(12.5)
	require.NoError(t, store.Import([]EdgeRecord{record}))

	records, err := store.NeighborsOf(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, record, records[0])

	// Re-import replaces everything
	require.NoError(t, store.Import([]EdgeRecord{fixtureRecords()[0]}))
	records, err = store.NeighborsOf(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []EdgeID{1}, recordIDs(records))
}
