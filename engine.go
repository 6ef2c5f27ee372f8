package veloinfo

import (
	"fmt"
	"log/slog"
)

// Engine computes bicycle routes over an EdgeStore. Safe for concurrent use: searches share
// only the neighbor cache
type Engine struct {
	store         EdgeStore
	cache         *NeighborCache
	logger        *slog.Logger
	balanced      Profile
	corridor      Profile
	relaxDistance float64
	relaxFactor   float64
	progressEvery int
	nearestRadius float64
}

func (engine *Engine) String() string {
	return fmt.Sprintf(`
Routing engine parameters:
	balanced profile: '%s' (max expansions: %d)
	corridor profile: '%s' (max expansions: %d)
	heuristic relaxation: x%f after %f meters
	progress every: %d expansions
	nearest node radius: %f meters
	`,
		engine.balanced.Name(), engine.balanced.MaxExpansions(),
		engine.corridor.Name(), engine.corridor.MaxExpansions(),
		engine.relaxFactor, engine.relaxDistance,
		engine.progressEvery,
		engine.nearestRadius,
	)
}

// NewEngine returns engine over the store. Unless WithCache is given it gets its own neighbor cache
func NewEngine(store EdgeStore, options ...func(*Engine)) *Engine {
	engine := &Engine{
		store:         store,
		logger:        slog.Default(),
		balanced:      NewBalancedProfile(SLOPE_MULTIPLICATIVE, defaultBalancedExpansions),
		corridor:      NewCorridorProfile(defaultCorridorExpansions),
		relaxDistance: defaultRelaxDistance,
		relaxFactor:   defaultRelaxFactor,
		progressEvery: defaultProgressEvery,
		nearestRadius: defaultNearestRadius,
	}
	for _, option := range options {
		option(engine)
	}
	if engine.cache == nil {
		engine.cache = NewNeighborCache(store, WithCacheLogger(engine.logger))
	}
	return engine
}

// WithCache injects neighbor cache. Cache must front the same store
func WithCache(cache *NeighborCache) func(*Engine) {
	return func(engine *Engine) {
		engine.cache = cache
	}
}

func WithLogger(logger *slog.Logger) func(*Engine) {
	return func(engine *Engine) {
		if logger != nil {
			engine.logger = logger
		}
	}
}

// WithProfiles replaces default profiles. Nil keeps the default one
func WithProfiles(balanced, corridor Profile) func(*Engine) {
	return func(engine *Engine) {
		if balanced != nil {
			engine.balanced = balanced
		}
		if corridor != nil {
			engine.corridor = corridor
		}
	}
}

// WithRelaxation sets heuristic relaxation for long queries. Zero distance disables it
func WithRelaxation(distance, factor float64) func(*Engine) {
	return func(engine *Engine) {
		engine.relaxDistance = distance
		engine.relaxFactor = factor
	}
}

// WithProgressEvery sets sampling period of progress reporting (in expansions)
func WithProgressEvery(every int) func(*Engine) {
	return func(engine *Engine) {
		if every > 0 {
			engine.progressEvery = every
		}
	}
}

// WithNearestRadius sets radius (meters) for snapping coordinates to the graph
func WithNearestRadius(radius float64) func(*Engine) {
	return func(engine *Engine) {
		if radius > 0 {
			engine.nearestRadius = radius
		}
	}
}

// Cache returns neighbor cache of the engine
func (engine *Engine) Cache() *NeighborCache {
	return engine.cache
}

// Store returns underlying edge store
func (engine *Engine) Store() EdgeStore {
	return engine.store
}

// Balanced returns default profile
func (engine *Engine) Balanced() Profile {
	return engine.balanced
}

// CorridorProfile returns coarse profile
func (engine *Engine) CorridorProfile() Profile {
	return engine.corridor
}
