package veloinfo

import (
	"io"
	"log/slog"

	"github.com/paulmach/osm"
)

// Fixture nodes lie on a 3x2 grid:
//
//	4 --- 5 --- 6
//	|     |     |
//	1 --- 2 --- 3
//
// Bottom row is a tertiary street with sett surface, the detour 1-4-5-6-3 is a cycleway,
// 2-5 is a residential street. Nodes 100 and 101 form a separate component.
const (
	fixtureStreetWay   = osm.WayID(10)
	fixtureCyclewayA   = osm.WayID(20)
	fixtureCyclewayB   = osm.WayID(30)
	fixtureCyclewayC   = osm.WayID(40)
	fixtureConnector   = osm.WayID(50)
	fixtureIsolatedWay = osm.WayID(60)
)

var fixtureNodes = map[osm.NodeID]GeoPoint{
	1:   {Lon: -73.570, Lat: 45.500},
	2:   {Lon: -73.569, Lat: 45.500},
	3:   {Lon: -73.568, Lat: 45.500},
	4:   {Lon: -73.570, Lat: 45.501},
	5:   {Lon: -73.569, Lat: 45.501},
	6:   {Lon: -73.568, Lat: 45.501},
	100: {Lon: -73.560, Lat: 45.510},
	101: {Lon: -73.559, Lat: 45.510},
}

func fixtureEdge(id EdgeID, wayID osm.WayID, source, target osm.NodeID, tags osm.Tags) EdgeRecord {
	return EdgeRecord{
		ID:           id,
		WayID:        wayID,
		SourceNodeID: source,
		TargetNodeID: target,
		Source:       fixtureNodes[source],
		Target:       fixtureNodes[target],
		LengthMeters: greatCircleDistance(fixtureNodes[source], fixtureNodes[target]),
		Tags:         tags,
	}
}

func fixtureRecords() []EdgeRecord {
	street := osm.Tags{{Key: "highway", Value: "tertiary"}, {Key: "surface", Value: "sett"}}
	cycleway := osm.Tags{{Key: "highway", Value: "cycleway"}}
	return []EdgeRecord{
		fixtureEdge(1, fixtureStreetWay, 1, 2, street),
		fixtureEdge(2, fixtureStreetWay, 2, 3, street),
		fixtureEdge(3, fixtureCyclewayA, 1, 4, cycleway),
		fixtureEdge(4, fixtureCyclewayB, 4, 5, cycleway),
		fixtureEdge(5, fixtureCyclewayB, 5, 6, cycleway),
		fixtureEdge(6, fixtureCyclewayC, 6, 3, osm.Tags{{Key: "highway", Value: "cycleway"}, {Key: "oneway", Value: "yes"}}),
		fixtureEdge(7, fixtureConnector, 2, 5, osm.Tags{{Key: "highway", Value: "residential"}}),
		fixtureEdge(8, fixtureIsolatedWay, 100, 101, osm.Tags{{Key: "highway", Value: "residential"}}),
	}
}

func newFixtureStore() *MemoryStore {
	store := NewMemoryStore()
	for _, record := range fixtureRecords() {
		store.AddEdge(record)
	}
	return store
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func routeNodes(route Route) []osm.NodeID {
	nodes := make([]osm.NodeID, len(route.Points))
	for i, pt := range route.Points {
		nodes[i] = pt.NodeID
	}
	return nodes
}

// baseRecord is a 100 meters long edge between nodes 1 and 2
func baseRecord(tags osm.Tags) EdgeRecord {
	return EdgeRecord{
		ID:           1,
		WayID:        1,
		SourceNodeID: 1,
		TargetNodeID: 2,
		Source:       GeoPoint{Lon: -73.570, Lat: 45.500},
		Target:       GeoPoint{Lon: -73.569, Lat: 45.500},
		LengthMeters: 100,
		Tags:         tags,
	}
}

func traversalOf(record EdgeRecord, direction Direction) EdgePoint {
	return EdgePoint{Edge: NewEdge(record), Direction: direction}
}

// edgePointOf returns traversal of a single record built from tags
func edgePointOf(tags osm.Tags, direction Direction) EdgePoint {
	return traversalOf(baseRecord(tags), direction)
}

func floatPtr(v float64) *float64 {
	return &v
}

func tagsOf(kv ...string) osm.Tags {
	tags := make(osm.Tags, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		tags = append(tags, osm.Tag{Key: kv[i], Value: kv[i+1]})
	}
	return tags
}
