package veloinfo

import (
	"context"
	"time"

	"github.com/paulmach/osm"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// WarmRoute is a sample route computed after invalidation to fill the cache again
type WarmRoute struct {
	Start osm.NodeID `yaml:"start" json:"start"`
	End   osm.NodeID `yaml:"end" json:"end"`
}

// DefaultWarmRoutes are long regional routes which touch a large part of the graph
var DefaultWarmRoutes = []WarmRoute{
	{Start: 1419279436, End: 177522966},
	{Start: 2352518821, End: 1870784004},
}

// ClearAll drops the whole neighbor cache, e.g. after data re-import
func (engine *Engine) ClearAll() error {
	return engine.cache.Clear()
}

// ClearNodes drops cached neighbors of the nodes
func (engine *Engine) ClearNodes(nodeIDs []osm.NodeID) error {
	if len(nodeIDs) == 0 {
		return nil
	}
	return engine.cache.RemoveNodes(nodeIDs)
}

// InvalidateWays drops cached neighbors of every endpoint of the ways' edges.
// Each call clears its own complete node set, so concurrent calls invalidate the union of their sets
func (engine *Engine) InvalidateWays(ctx context.Context, wayIDs []osm.WayID) ([]osm.NodeID, error) {
	nodeIDs, err := engine.store.NodesOfWays(ctx, wayIDs)
	if err != nil {
		return nil, errors.Wrap(err, "Can't find nodes of ways")
	}
	return nodeIDs, engine.ClearNodes(nodeIDs)
}

// ReloadAndWarm clears the cache and computes sample routes concurrently to populate it again.
// Failures of sample routes are logged only
func (engine *Engine) ReloadAndWarm(ctx context.Context, routes []WarmRoute) error {
	if err := engine.ClearAll(); err != nil {
		// Cache stays as is. Warming still helps with nodes missing from it
		engine.logger.Warn("cache was not cleared before warm-up", "error", err)
	}
	g, gctx := errgroup.WithContext(ctx)
	for _, wr := range routes {
		g.Go(func() error {
			st := time.Now()
			engine.logger.Info("warm-up route started", "start", wr.Start, "end", wr.End)
			route, err := engine.Route(gctx, wr.Start, wr.End, nil, nil)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				engine.logger.Warn("warm-up route failed", "start", wr.Start, "end", wr.End, "error", err)
				return nil
			}
			engine.logger.Info("warm-up route finished",
				"start", wr.Start,
				"end", wr.End,
				"found", route.Found(),
				"expansions", route.Expansions,
				"took", time.Since(st),
			)
			return nil
		})
	}
	return g.Wait()
}
