package veloinfo

import (
	"math"
)

// Profile scores directed traversals. Exactly one profile drives a search
type Profile interface {
	// Name is used in logs and metrics
	Name() string
	// Cost returns weight of traversal. It is always finite and strictly positive
	Cost(ep EdgePoint) float64
	// MinFactor is the lowest cost per meter the profile can ever produce
	MinFactor() float64
	// MaxExpansions caps total node expansions of a single search
	MaxExpansions() int
}

// edgeLength returns length accounted for traversal
func edgeLength(ep EdgePoint) float64 {
	return math.Max(ep.LengthMeters, minEdgeLength)
}

// BalancedProfile implements the complete cascade: classification, road work, slope and consensus score
type BalancedProfile struct {
	SlopePolicy SlopePolicy
	Expansions  int
	rules       []costRule
}

const (
	defaultBalancedExpansions = 5_000_000
	defaultCorridorExpansions = 10_000
)

// NewBalancedProfile returns default profile. Non-positive maxExpansions means default cap
func NewBalancedProfile(policy SlopePolicy, maxExpansions int) *BalancedProfile {
	if policy == 0 {
		policy = SLOPE_MULTIPLICATIVE
	}
	if maxExpansions <= 0 {
		maxExpansions = defaultBalancedExpansions
	}
	return &BalancedProfile{
		SlopePolicy: policy,
		Expansions:  maxExpansions,
		rules:       balancedRules,
	}
}

func (profile *BalancedProfile) Name() string {
	return "balanced"
}

func (profile *BalancedProfile) MaxExpansions() int {
	return profile.Expansions
}

func (profile *BalancedProfile) MinFactor() float64 {
	return bestBalancedFactor * profile.SlopePolicy.floor()
}

// Factor returns cost per meter and name of the rule which classified traversal
func (profile *BalancedProfile) Factor(ep EdgePoint) (float64, string) {
	tc := classifyTraversal(ep)
	rule := matchRule(profile.rules, &tc)
	if rule.exclude {
		return impassableFactor, rule.name
	}
	factor := rule.factor(&tc)
	if ep.RoadWork {
		factor *= roadWorkFactor
	}
	start, end := ep.elevations()
	factor = profile.SlopePolicy.combine(factor, profile.SlopePolicy.SlopeCost(start, end, ep.LengthMeters))
	factor /= effectiveScore(ep.Score)
	return math.Min(factor, impassableFactor), rule.name
}

func (profile *BalancedProfile) Cost(ep EdgePoint) float64 {
	length := edgeLength(ep)
	factor, _ := profile.Factor(ep)
	return finiteCost(length*factor, length)
}

// CorridorProfile only tells dedicated cycling infrastructure from everything else.
// It approximates the street corridor between two points rather than an exact route
type CorridorProfile struct {
	Expansions int
}

const (
	corridorDedicatedFactor = 1.0
	corridorOtherFactor     = 10.0
)

// NewCorridorProfile returns coarse profile. Non-positive maxExpansions means default cap
func NewCorridorProfile(maxExpansions int) *CorridorProfile {
	if maxExpansions <= 0 {
		maxExpansions = defaultCorridorExpansions
	}
	return &CorridorProfile{Expansions: maxExpansions}
}

func (profile *CorridorProfile) Name() string {
	return "corridor"
}

func (profile *CorridorProfile) MaxExpansions() int {
	return profile.Expansions
}

func (profile *CorridorProfile) MinFactor() float64 {
	return corridorDedicatedFactor
}

// dedicated reports whether the edge carries infrastructure for bicycles in any direction
func dedicated(et EdgeTags) bool {
	if et.Highway == HIGHWAY_CYCLEWAY || et.Cyclestreet || et.Bicycle == BICYCLE_DESIGNATED {
		return true
	}
	for _, kind := range []CyclewayType{et.Cycleway, et.CyclewayLeft, et.CyclewayRight, et.CyclewayBoth} {
		if kind == CYCLEWAY_CROSSING || kind == CYCLEWAY_TRACK || kind == CYCLEWAY_LANE {
			return true
		}
	}
	return false
}

func (profile *CorridorProfile) Cost(ep EdgePoint) float64 {
	length := edgeLength(ep)
	if dedicated(ep.parsed) {
		return length * corridorDedicatedFactor
	}
	return length * corridorOtherFactor
}
