package veloinfo

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
	"github.com/pkg/errors"
)

type OSMScanner interface {
	Scan() bool
	Close() error
	Err() error
	Object() osm.Object
}

// wayRaw is a highway with its node sequence
type wayRaw struct {
	ID     osm.WayID
	Nodes  []osm.NodeID
	TagMap osm.Tags
}

// nodeRaw is a node used by at least one highway
type nodeRaw struct {
	point     GeoPoint
	elevation *float64
	useCount  int
}

var (
	// Highway values which never carry bicycle traffic and are not worth storing
	negligibleHighwayTags = map[string]struct{}{
		"raceway":    {},
		"bridleway":  {},
		"rest_area":  {},
		"services":   {},
		"bus_stop":   {},
		"platform":   {},
		"elevator":   {},
		"escalator":  {},
		"corridor":   {},
		"planned":    {},
		"dismantled": {},
		"disused":    {},
		"razed":      {},
	}
)

// newScanner guesses file format by extension
func newScanner(ctx context.Context, file *os.File, filename string) (OSMScanner, error) {
	ext := filepath.Ext(filename)
	switch ext {
	case ".osm", ".xml":
		return osmxml.New(ctx, file), nil
	case ".pbf":
		return osmpbf.New(ctx, file, 4), nil
	default:
		return nil, fmt.Errorf("File extension '%s' for file '%s' is not handled yet", ext, filename)
	}
}

// scanFile runs callback for every object of the file
func scanFile(ctx context.Context, file *os.File, filename string, fn func(obj osm.Object)) error {
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return errors.Wrap(err, "Can't seek to the start of file")
	}
	scanner, err := newScanner(ctx, file, filename)
	if err != nil {
		return err
	}
	defer scanner.Close()
	for scanner.Scan() {
		fn(scanner.Object())
	}
	return scanner.Err()
}

// LoadOSM reads .osm/.osm.pbf extract and returns in-memory store with bicycle graph.
// Ways are split into edges at every node shared with other ways
func LoadOSM(ctx context.Context, filename string, verbose bool, logger *slog.Logger) (*MemoryStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if verbose {
		logger.Info(fmt.Sprintf("Opening file: '%s'...", filename))
	}
	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't open file %s", filename)
	}
	defer file.Close()

	st := time.Now()
	ways := []*wayRaw{}
	nodes := make(map[osm.NodeID]*nodeRaw)
	err = scanFile(ctx, file, filename, func(obj osm.Object) {
		if obj.ObjectID().Type() != "way" {
			return
		}
		way := obj.(*osm.Way)
		highway := way.Tags.Find("highway")
		if highway == "" || way.Tags.Find("area") == "yes" {
			return
		}
		if _, ok := negligibleHighwayTags[highway]; ok {
			return
		}
		if len(way.Nodes) < 2 {
			return
		}
		prepared := &wayRaw{
			ID:     way.ID,
			Nodes:  make([]osm.NodeID, 0, len(way.Nodes)),
			TagMap: make(osm.Tags, len(way.Tags)),
		}
		copy(prepared.TagMap, way.Tags)
		for i, node := range way.Nodes {
			prepared.Nodes = append(prepared.Nodes, node.ID)
			if _, ok := nodes[node.ID]; !ok {
				nodes[node.ID] = &nodeRaw{}
			}
			// Way endpoints always split edges
			if i == 0 || i == len(way.Nodes)-1 {
				nodes[node.ID].useCount += 2
			} else {
				nodes[node.ID].useCount++
			}
		}
		ways = append(ways, prepared)
	})
	if err != nil {
		return nil, errors.Wrap(err, "Scanner error on ways")
	}
	if verbose {
		logger.Info(fmt.Sprintf("Processing ways... Done in %v", time.Since(st)), "ways", len(ways))
	}

	st = time.Now()
	found := 0
	err = scanFile(ctx, file, filename, func(obj osm.Object) {
		if obj.ObjectID().Type() != "node" {
			return
		}
		node := obj.(*osm.Node)
		prepared, ok := nodes[node.ID]
		if !ok {
			return
		}
		found++
		prepared.point = GeoPoint{Lon: node.Lon, Lat: node.Lat}
		if ele := node.Tags.Find("ele"); ele != "" {
			if v, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(ele, "m")), 64); err == nil {
				prepared.elevation = &v
			}
		}
	})
	if err != nil {
		return nil, errors.Wrap(err, "Scanner error on nodes")
	}
	if verbose {
		logger.Info(fmt.Sprintf("Processing nodes... Done in %v", time.Since(st)), "nodes", found)
	}

	st = time.Now()
	routeWays := make(map[osm.WayID]struct{})
	err = scanFile(ctx, file, filename, func(obj osm.Object) {
		if obj.ObjectID().Type() != "relation" {
			return
		}
		relation := obj.(*osm.Relation)
		if relation.Tags.Find("type") != "route" || relation.Tags.Find("route") != "bicycle" {
			return
		}
		for _, member := range relation.Members {
			if member.Type == osm.TypeWay {
				routeWays[osm.WayID(member.Ref)] = struct{}{}
			}
		}
	})
	if err != nil {
		return nil, errors.Wrap(err, "Scanner error on relations")
	}
	if verbose {
		logger.Info(fmt.Sprintf("Processing bicycle routes... Done in %v", time.Since(st)), "ways", len(routeWays))
	}

	st = time.Now()
	store := NewMemoryStore()
	edgeID := EdgeID(0)
	skipped := 0
	for _, way := range ways {
		_, inRoute := routeWays[way.ID]
		var source osm.NodeID
		geometry := []GeoPoint{}
		for _, nodeID := range way.Nodes {
			node := nodes[nodeID]
			if node.point == (GeoPoint{}) {
				// Node is missing from extract (clipped way). Drop the current piece
				skipped++
				geometry = geometry[:0]
				continue
			}
			if len(geometry) == 0 {
				source = nodeID
				geometry = append(geometry, node.point)
				continue
			}
			geometry = append(geometry, node.point)
			if node.useCount <= 1 {
				continue
			}
			edgeID++
			store.AddEdge(EdgeRecord{
				ID:             edgeID,
				WayID:          way.ID,
				SourceNodeID:   source,
				TargetNodeID:   nodeID,
				Source:         geometry[0],
				Target:         node.point,
				LengthMeters:   getSphericalLength(geometry),
				Tags:           way.TagMap,
				InBicycleRoute: inRoute,
				ElevationStart: nodes[source].elevation,
				ElevationEnd:   node.elevation,
			})
			source = nodeID
			geometry = []GeoPoint{node.point}
		}
	}
	if verbose {
		logger.Info(fmt.Sprintf("Preparing edges... Done in %v", time.Since(st)), "edges", store.Len(), "missing_nodes", skipped)
	}
	return store, nil
}
