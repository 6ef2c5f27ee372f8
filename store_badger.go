package veloinfo

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"log/slog"
	"math"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/paulmach/osm"
	"github.com/pkg/errors"
)

// Key layout:
//
//	edge/<edge id>              -> storedRecord
//	adj/<node id>/<edge id>     -> empty
//	way/<way id>/<edge id>      -> empty
//	rnode/<node id>             -> GeoPoint of node of a routable edge
const (
	edgePrefix  = "edge/"
	adjPrefix   = "adj/"
	wayPrefix   = "way/"
	rnodePrefix = "rnode/"
)

func edgeKey(edgeID EdgeID) []byte {
	return []byte(fmt.Sprintf("%s%d", edgePrefix, edgeID))
}

func adjKey(nodeID osm.NodeID, edgeID EdgeID) []byte {
	return []byte(fmt.Sprintf("%s%d/%d", adjPrefix, nodeID, edgeID))
}

func adjNodePrefix(nodeID osm.NodeID) []byte {
	return []byte(fmt.Sprintf("%s%d/", adjPrefix, nodeID))
}

func wayKey(wayID osm.WayID, edgeID EdgeID) []byte {
	return []byte(fmt.Sprintf("%s%d/%d", wayPrefix, wayID, edgeID))
}

func wayEdgesPrefix(wayID osm.WayID) []byte {
	return []byte(fmt.Sprintf("%s%d/", wayPrefix, wayID))
}

func rnodeKey(nodeID osm.NodeID) []byte {
	return []byte(fmt.Sprintf("%s%d", rnodePrefix, nodeID))
}

// edgeIDFromKey parses trailing edge identifier of adjacency and way keys
func edgeIDFromKey(key []byte) (EdgeID, error) {
	idx := bytes.LastIndexByte(key, '/')
	var edgeID EdgeID
	_, err := fmt.Sscanf(string(key[idx+1:]), "%d", &edgeID)
	return edgeID, err
}

const (
	closurePresent = 1 << iota
	closureEdge
	closureLeft
	closureRight
)

// storedRecord is gob representation of EdgeRecord. Gob drops zero values behind pointers,
// so nullable fields are carried with explicit presence flags
type storedRecord struct {
	ID                EdgeID
	WayID             osm.WayID
	SourceNodeID      osm.NodeID
	TargetNodeID      osm.NodeID
	Source            GeoPoint
	Target            GeoPoint
	LengthMeters      float64
	Tags              osm.Tags
	InBicycleRoute    bool
	HasScore          bool
	Score             float64
	RoadWork          bool
	CitySnow          bool
	Closure           uint8
	HasElevationStart bool
	ElevationStart    float64
	HasElevationEnd   bool
	ElevationEnd      float64
}

func newStoredRecord(record EdgeRecord) storedRecord {
	stored := storedRecord{
		ID:             record.ID,
		WayID:          record.WayID,
		SourceNodeID:   record.SourceNodeID,
		TargetNodeID:   record.TargetNodeID,
		Source:         record.Source,
		Target:         record.Target,
		LengthMeters:   record.LengthMeters,
		Tags:           record.Tags,
		InBicycleRoute: record.InBicycleRoute,
		RoadWork:       record.RoadWork,
		CitySnow:       record.CitySnow,
	}
	if record.Score != nil {
		stored.HasScore, stored.Score = true, *record.Score
	}
	if record.ElevationStart != nil {
		stored.HasElevationStart, stored.ElevationStart = true, *record.ElevationStart
	}
	if record.ElevationEnd != nil {
		stored.HasElevationEnd, stored.ElevationEnd = true, *record.ElevationEnd
	}
	if wc := record.WinterClosure; wc != nil {
		stored.Closure = closurePresent
		if wc.Edge {
			stored.Closure |= closureEdge
		}
		if wc.Left {
			stored.Closure |= closureLeft
		}
		if wc.Right {
			stored.Closure |= closureRight
		}
	}
	return stored
}

func (stored storedRecord) record() EdgeRecord {
	record := EdgeRecord{
		ID:             stored.ID,
		WayID:          stored.WayID,
		SourceNodeID:   stored.SourceNodeID,
		TargetNodeID:   stored.TargetNodeID,
		Source:         stored.Source,
		Target:         stored.Target,
		LengthMeters:   stored.LengthMeters,
		Tags:           stored.Tags,
		InBicycleRoute: stored.InBicycleRoute,
		RoadWork:       stored.RoadWork,
		CitySnow:       stored.CitySnow,
	}
	if stored.HasScore {
		score := stored.Score
		record.Score = &score
	}
	if stored.HasElevationStart {
		elev := stored.ElevationStart
		record.ElevationStart = &elev
	}
	if stored.HasElevationEnd {
		elev := stored.ElevationEnd
		record.ElevationEnd = &elev
	}
	if stored.Closure&closurePresent != 0 {
		record.WinterClosure = &WinterClosure{
			Edge:  stored.Closure&closureEdge != 0,
			Left:  stored.Closure&closureLeft != 0,
			Right: stored.Closure&closureRight != 0,
		}
	}
	return record
}

func encodeGob(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeGob(data []byte, v any) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}

type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// BadgerStore keeps the graph in a badger database
type BadgerStore struct {
	db *badger.DB
}

// OpenBadgerStore opens (or creates) store in given directory. Empty directory means in-memory database
func OpenBadgerStore(dir string, logger *slog.Logger) (*BadgerStore, error) {
	var opts badger.Options
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, errors.Wrapf(err, "Can't create directory %s", dir)
		}
		opts = badger.DefaultOptions(dir)
	}
	opts = opts.WithNumVersionsToKeep(1)
	if logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: logger})
	} else {
		opts = opts.WithLogger(nil)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "Can't open badger database")
	}
	return &BadgerStore{db: db}, nil
}

// Close closes database
func (store *BadgerStore) Close() error {
	return store.db.Close()
}

// Import replaces whole content of the store with given edges
func (store *BadgerStore) Import(records []EdgeRecord) error {
	if err := store.db.DropAll(); err != nil {
		return errors.Wrap(err, "Can't drop previous data")
	}
	wb := store.db.NewWriteBatch()
	defer wb.Cancel()
	for i := range records {
		if err := putRecord(wb.Set, records[i]); err != nil {
			return err
		}
	}
	return errors.Wrap(wb.Flush(), "Can't flush edges")
}

// putRecord writes edge with its index keys via given setter
func putRecord(set func(key, value []byte) error, record EdgeRecord) error {
	data, err := encodeGob(newStoredRecord(record))
	if err != nil {
		return errors.Wrapf(err, "Can't encode edge %d", record.ID)
	}
	if err := set(edgeKey(record.ID), data); err != nil {
		return errors.Wrapf(err, "Can't write edge %d", record.ID)
	}
	keys := [][]byte{
		adjKey(record.SourceNodeID, record.ID),
		adjKey(record.TargetNodeID, record.ID),
		wayKey(record.WayID, record.ID),
	}
	for _, key := range keys {
		if err := set(key, []byte{}); err != nil {
			return errors.Wrapf(err, "Can't write index of edge %d", record.ID)
		}
	}
	if !parseEdgeTags(record.Tags).routable() {
		return nil
	}
	for _, node := range []struct {
		id osm.NodeID
		pt GeoPoint
	}{{record.SourceNodeID, record.Source}, {record.TargetNodeID, record.Target}} {
		pt, err := encodeGob(node.pt)
		if err != nil {
			return errors.Wrapf(err, "Can't encode node %d", node.id)
		}
		if err := set(rnodeKey(node.id), pt); err != nil {
			return errors.Wrapf(err, "Can't write node %d", node.id)
		}
	}
	return nil
}

func getRecord(txn *badger.Txn, edgeID EdgeID) (EdgeRecord, error) {
	item, err := txn.Get(edgeKey(edgeID))
	if err != nil {
		return EdgeRecord{}, errors.Wrapf(err, "Can't get edge %d", edgeID)
	}
	var stored storedRecord
	err = item.Value(func(val []byte) error {
		return decodeGob(val, &stored)
	})
	if err != nil {
		return EdgeRecord{}, errors.Wrapf(err, "Can't decode edge %d", edgeID)
	}
	return stored.record(), nil
}

// edgesByPrefix loads edges referenced by index keys with given prefix
func edgesByPrefix(txn *badger.Txn, prefix []byte) ([]EdgeRecord, error) {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()
	ids := []EdgeID{}
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		edgeID, err := edgeIDFromKey(it.Item().Key())
		if err != nil {
			return nil, errors.Wrapf(err, "Can't parse key %s", it.Item().Key())
		}
		ids = append(ids, edgeID)
	}
	records := make([]EdgeRecord, 0, len(ids))
	for _, edgeID := range ids {
		record, err := getRecord(txn, edgeID)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func (store *BadgerStore) NeighborsOf(ctx context.Context, nodeID osm.NodeID) ([]EdgeRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var records []EdgeRecord
	err := store.db.View(func(txn *badger.Txn) error {
		var err error
		records, err = edgesByPrefix(txn, adjNodePrefix(nodeID))
		return err
	})
	return records, err
}

func (store *BadgerStore) NearestRoutableNode(ctx context.Context, lon, lat, radius float64) (osm.NodeID, error) {
	if radius <= 0 {
		radius = defaultNearestRadius
	}
	query := GeoPoint{Lon: lon, Lat: lat}
	minPt, maxPt := boundingBox(query, radius)
	var found osm.NodeID
	best := math.Inf(1)
	err := store.db.View(func(txn *badger.Txn) error {
		prefix := []byte(rnodePrefix)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var pt GeoPoint
			if err := it.Item().Value(func(val []byte) error { return decodeGob(val, &pt) }); err != nil {
				return errors.Wrapf(err, "Can't decode node %s", it.Item().Key())
			}
			if !insideBox(pt, minPt, maxPt) {
				continue
			}
			var nodeID osm.NodeID
			if _, err := fmt.Sscanf(string(it.Item().Key()[len(prefix):]), "%d", &nodeID); err != nil {
				return errors.Wrapf(err, "Can't parse key %s", it.Item().Key())
			}
			d := greatCircleDistance(query, pt)
			if d <= radius && (d < best || (d == best && nodeID < found)) {
				best, found = d, nodeID
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if math.IsInf(best, 1) {
		return 0, &CoordinateNotFoundError{Lon: lon, Lat: lat, Radius: radius}
	}
	return found, nil
}

func (store *BadgerStore) NodesOfWays(ctx context.Context, wayIDs []osm.WayID) ([]osm.NodeID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var records []EdgeRecord
	err := store.db.View(func(txn *badger.Txn) error {
		for _, wayID := range wayIDs {
			wayRecords, err := edgesByPrefix(txn, wayEdgesPrefix(wayID))
			if err != nil {
				return err
			}
			records = append(records, wayRecords...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return uniqueNodes(records), nil
}

// mutateWays applies fn to every edge of the ways in a single transaction and returns their endpoints
func (store *BadgerStore) mutateWays(ctx context.Context, wayIDs []osm.WayID, fn func(record *EdgeRecord)) ([]osm.NodeID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var records []EdgeRecord
	err := store.db.Update(func(txn *badger.Txn) error {
		for _, wayID := range wayIDs {
			wayRecords, err := edgesByPrefix(txn, wayEdgesPrefix(wayID))
			if err != nil {
				return err
			}
			for i := range wayRecords {
				fn(&wayRecords[i])
				data, err := encodeGob(newStoredRecord(wayRecords[i]))
				if err != nil {
					return errors.Wrapf(err, "Can't encode edge %d", wayRecords[i].ID)
				}
				if err := txn.Set(edgeKey(wayRecords[i].ID), data); err != nil {
					return errors.Wrapf(err, "Can't write edge %d", wayRecords[i].ID)
				}
			}
			records = append(records, wayRecords...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return uniqueNodes(records), nil
}

func (store *BadgerStore) SetScore(ctx context.Context, wayIDs []osm.WayID, score float64) ([]osm.NodeID, error) {
	return store.mutateWays(ctx, wayIDs, func(record *EdgeRecord) {
		record.Score = &score
	})
}

func (store *BadgerStore) SetRoadWork(ctx context.Context, wayIDs []osm.WayID, roadWork bool) ([]osm.NodeID, error) {
	return store.mutateWays(ctx, wayIDs, func(record *EdgeRecord) {
		record.RoadWork = roadWork
	})
}

func (store *BadgerStore) SetCitySnow(ctx context.Context, wayIDs []osm.WayID, snow bool) ([]osm.NodeID, error) {
	return store.mutateWays(ctx, wayIDs, func(record *EdgeRecord) {
		record.CitySnow = snow
	})
}
