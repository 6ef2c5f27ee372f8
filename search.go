package veloinfo

import (
	"context"
	"math"
	"slices"

	"github.com/google/uuid"
	"github.com/paulmach/osm"
	"github.com/pkg/errors"
	"github.com/tidwall/btree"
	"golang.org/x/time/rate"
)

type frontierItem struct {
	key    ScoreKey
	nodeID osm.NodeID
}

func frontierLess(a, b *frontierItem) bool {
	return a.key.Less(b.key)
}

// nodeState is search state of a node within one frontier
type nodeState struct {
	// Best known cost from frontier origin
	g     float64
	point GeoPoint
	// Traversal which reached the node, in the frontier's frame. Nil for origin
	via *EdgePoint
	// Non-nil while node is in the open set
	item *frontierItem
}

// frontier is one half of bidirectional search
type frontier struct {
	backward  bool
	goal      GeoPoint
	heuristic Heuristic
	open      *btree.BTreeG[*frontierItem]
	states    map[osm.NodeID]*nodeState
	seq       uint64
}

func newFrontier(origin osm.NodeID, originPt, goal GeoPoint, h Heuristic, backward bool) *frontier {
	f := &frontier{
		backward:  backward,
		goal:      goal,
		heuristic: h,
		open:      btree.NewBTreeGOptions(frontierLess, btree.Options{NoLocks: true}),
		states:    make(map[osm.NodeID]*nodeState),
	}
	f.push(origin, &nodeState{point: originPt})
	return f
}

// push inserts node into open set or updates its priority
func (f *frontier) push(nodeID osm.NodeID, state *nodeState) {
	if state.item != nil {
		f.open.Delete(state.item)
	}
	f.seq++
	state.item = &frontierItem{
		key:    ScoreKey{Priority: state.g + f.heuristic.Estimate(state.point, f.goal), Seq: f.seq},
		nodeID: nodeID,
	}
	f.open.Set(state.item)
	f.states[nodeID] = state
}

func (f *frontier) pop() (osm.NodeID, *nodeState, bool) {
	item, ok := f.open.PopMin()
	if !ok {
		return 0, nil, false
	}
	state := f.states[item.nodeID]
	state.item = nil
	return item.nodeID, state, true
}

func (f *frontier) minPriority() float64 {
	item, ok := f.open.Min()
	if !ok {
		return math.Inf(1)
	}
	return item.key.Priority
}

type search struct {
	cache         *NeighborCache
	profile       Profile
	sink          ProgressSink
	sometimes     *rate.Sometimes
	forward       *frontier
	backward      *frontier
	maxExpansions int
	expansions    int
	capReached    bool
	met           bool
	best          float64
	meeting       osm.NodeID
}

// meet records candidate meeting point
func (s *search) meet(nodeID osm.NodeID, cost float64) {
	if !s.met || cost < s.best {
		s.met = true
		s.best = cost
		s.meeting = nodeID
	}
}

func (s *search) run(ctx context.Context) error {
	for {
		for _, pair := range [2][2]*frontier{{s.forward, s.backward}, {s.backward, s.forward}} {
			stop, err := s.step(ctx, pair[0], pair[1])
			if err != nil || stop {
				return err
			}
		}
	}
}

// step expands one node of the frontier unless the search is over
func (s *search) step(ctx context.Context, f, other *frontier) (bool, error) {
	if err := ctx.Err(); err != nil {
		return true, err
	}
	if f.open.Len() == 0 || other.open.Len() == 0 {
		return true, nil
	}
	// Every undiscovered path costs at least the smallest priority of either open set
	if s.met && math.Max(f.minPriority(), other.minPriority()) >= s.best {
		return true, nil
	}
	if s.expansions >= s.maxExpansions {
		s.capReached = true
		return true, nil
	}
	return false, s.expand(ctx, f, other)
}

func (s *search) expand(ctx context.Context, f, other *frontier) error {
	nodeID, state, ok := f.pop()
	if !ok {
		return nil
	}
	s.expansions++
	if otherState, ok := other.states[nodeID]; ok {
		s.meet(nodeID, state.g+otherState.g)
	}
	if s.sink != nil && state.via != nil {
		var sendErr error
		sample := newProgressSample(*state.via)
		s.sometimes.Do(func() {
			sendErr = s.sink.Send(ctx, sample)
		})
		if sendErr != nil {
			if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(sendErr, ctxErr) {
				return sendErr
			}
			return errors.Wrap(ErrSearchAborted, sendErr.Error())
		}
	}
	for _, ep := range s.cache.Neighbors(ctx, nodeID) {
		travel := ep
		if f.backward {
			// Backward frontier walks edges against travel direction
			travel = ep.Reverse()
		}
		g := state.g + s.profile.Cost(travel)
		next := ep.ToNodeID()
		nextState, seen := f.states[next]
		if seen && g >= nextState.g {
			continue
		}
		if !seen {
			nextState = &nodeState{point: ep.To()}
		}
		via := ep
		nextState.g = g
		nextState.via = &via
		f.push(next, nextState)
		if otherState, ok := other.states[next]; ok {
			s.meet(next, g+otherState.g)
		}
	}
	return nil
}

// path returns traversals from start to end through the meeting node
func (s *search) path() []EdgePoint {
	path := []EdgePoint{}
	for node := s.meeting; ; {
		state := s.forward.states[node]
		if state.via == nil {
			break
		}
		path = append(path, *state.via)
		node = state.via.FromNodeID()
	}
	slices.Reverse(path)
	for node := s.meeting; ; {
		state := s.backward.states[node]
		if state.via == nil {
			break
		}
		travel := state.via.Reverse()
		path = append(path, travel)
		node = travel.ToNodeID()
	}
	return path
}

// nodePoint returns coordinates of the node. Node without edges is ErrNodeNotFound
func (engine *Engine) nodePoint(ctx context.Context, nodeID osm.NodeID) (GeoPoint, error) {
	points, ok := engine.cache.Get(ctx, nodeID)
	if !ok {
		var err error
		points, err = engine.cache.Populate(ctx, nodeID)
		if err != nil {
			return GeoPoint{}, err
		}
	}
	if len(points) == 0 {
		return GeoPoint{}, errors.Wrapf(ErrNodeNotFound, "node %d has no edges", nodeID)
	}
	return points[0].From(), nil
}

// Route searches for the cheapest path between two nodes. Nil profile means the balanced one,
// nil sink disables progress reporting.
//
// Absence of a path is not an error: returned route has no points.
func (engine *Engine) Route(ctx context.Context, start, end osm.NodeID, profile Profile, sink ProgressSink) (Route, error) {
	if profile == nil {
		profile = engine.balanced
	}
	route := Route{ID: uuid.NewString(), Profile: profile.Name()}
	if err := ctx.Err(); err != nil {
		return route, err
	}
	startPt, err := engine.nodePoint(ctx, start)
	if err != nil {
		searchesTotal.WithLabelValues(profile.Name(), "error").Inc()
		return route, err
	}
	endPt, err := engine.nodePoint(ctx, end)
	if err != nil {
		searchesTotal.WithLabelValues(profile.Name(), "error").Inc()
		return route, err
	}
	if start == end {
		route.Points = buildPoints(start, startPt, nil)
		searchesTotal.WithLabelValues(profile.Name(), "found").Inc()
		return route, nil
	}

	h := newHeuristic(profile, startPt, endPt, engine.relaxDistance, engine.relaxFactor)
	s := &search{
		cache:         engine.cache,
		profile:       profile,
		sink:          sink,
		sometimes:     &rate.Sometimes{Every: engine.progressEvery},
		forward:       newFrontier(start, startPt, endPt, h, false),
		backward:      newFrontier(end, endPt, startPt, h, true),
		maxExpansions: profile.MaxExpansions(),
	}
	err = s.run(ctx)
	route.Expansions = s.expansions
	route.CapReached = s.capReached
	searchExpansions.WithLabelValues(profile.Name()).Observe(float64(s.expansions))
	if err != nil {
		outcome := "error"
		switch {
		case errors.Is(err, ErrSearchAborted):
			outcome = "aborted"
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			outcome = "cancelled"
		}
		searchesTotal.WithLabelValues(profile.Name(), outcome).Inc()
		engine.logger.Info("search interrupted", "search_id", route.ID, "profile", profile.Name(), "expansions", s.expansions, "error", err)
		return route, err
	}
	outcome := "no_route"
	if s.met {
		outcome = "found"
		path := s.path()
		route.Points = buildPoints(start, startPt, path)
		// Labels may have improved after the meeting was recorded
		for _, ep := range path {
			route.Cost += profile.Cost(ep)
		}
	}
	searchesTotal.WithLabelValues(profile.Name(), outcome).Inc()
	engine.logger.Debug("search finished",
		"search_id", route.ID,
		"profile", profile.Name(),
		"start", start,
		"end", end,
		"expansions", s.expansions,
		"cap_reached", s.capReached,
		"outcome", outcome,
	)
	return route, nil
}

// RouteCoordinates snaps query coordinates to the closest routable nodes and searches between them
func (engine *Engine) RouteCoordinates(ctx context.Context, from, to GeoPoint, profile Profile, sink ProgressSink) (Route, error) {
	start, err := engine.store.NearestRoutableNode(ctx, from.Lon, from.Lat, engine.nearestRadius)
	if err != nil {
		return Route{}, err
	}
	end, err := engine.store.NearestRoutableNode(ctx, to.Lon, to.Lat, engine.nearestRadius)
	if err != nil {
		return Route{}, err
	}
	return engine.Route(ctx, start, end, profile, sink)
}

// Corridor returns ways of the street corridor between two nodes, as found by the coarse profile
func (engine *Engine) Corridor(ctx context.Context, start, end osm.NodeID) ([]osm.WayID, error) {
	route, err := engine.Route(ctx, start, end, engine.corridor, nil)
	if err != nil {
		return nil, err
	}
	return route.WayIDs(), nil
}
