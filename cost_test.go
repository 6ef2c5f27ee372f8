package veloinfo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBalancedExclusions(t *testing.T) {
	profile := NewBalancedProfile(SLOPE_MULTIPLICATIVE, 0)
	cases := []struct {
		name      string
		tags      []string
		direction Direction
		rule      string
	}{
		{"oneway against drawing", []string{"highway", "cycleway", "oneway", "yes"}, DIRECTION_SOURCE, "oneway"},
		{"reversed oneway along drawing", []string{"highway", "residential", "oneway", "-1"}, DIRECTION_TARGET, "oneway"},
		{"bicycle oneway", []string{"highway", "residential", "oneway:bicycle", "yes"}, DIRECTION_SOURCE, "oneway"},
		{"bicycle no", []string{"highway", "residential", "bicycle", "no"}, DIRECTION_TARGET, "bicycle_no"},
		{"private", []string{"highway", "service", "access", "private"}, DIRECTION_TARGET, "private"},
		{"access no", []string{"highway", "service", "access", "no"}, DIRECTION_TARGET, "private"},
		{"motorway", []string{"highway", "motorway"}, DIRECTION_TARGET, "forbidden_highway"},
		{"proposed", []string{"highway", "proposed"}, DIRECTION_TARGET, "forbidden_highway"},
		{"abandoned", []string{"highway", "residential", "abandoned", "yes"}, DIRECTION_TARGET, "forbidden_highway"},
		{"abandoned highway", []string{"highway", "abandoned"}, DIRECTION_TARGET, "forbidden_highway"},
		{"steps", []string{"highway", "steps"}, DIRECTION_TARGET, "steps"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			ep := edgePointOf(tagsOf(c.tags...), c.direction)
			factor, rule := profile.Factor(ep)
			assert.Equal(t, c.rule, rule)
			assert.Equal(t, impassableFactor, factor)
			assert.Equal(t, impassableFactor*100, profile.Cost(ep))
		})
	}
}

func TestBalancedOnewayOverrides(t *testing.T) {
	profile := NewBalancedProfile(SLOPE_MULTIPLICATIVE, 0)
	cases := []struct {
		name string
		tags []string
		rule string
	}{
		{"bicycle exemption", []string{"highway", "cycleway", "oneway", "yes", "oneway:bicycle", "no"}, "cycleway"},
		{"two-way left track", []string{"highway", "tertiary", "oneway", "yes", "cycleway:left", "track", "cycleway:left:oneway", "no"}, "track"},
		{"two-way right lane", []string{"highway", "tertiary", "oneway", "yes", "cycleway:right", "lane", "cycleway:right:oneway", "no"}, "lane"},
		{"reversed oneway", []string{"highway", "residential", "oneway", "-1"}, "residential"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, rule := profile.Factor(edgePointOf(tagsOf(c.tags...), DIRECTION_SOURCE))
			assert.Equal(t, c.rule, rule)
		})
	}
}

func TestBalancedSideInfrastructure(t *testing.T) {
	profile := NewBalancedProfile(SLOPE_MULTIPLICATIVE, 0)
	tags := tagsOf("highway", "tertiary", "cycleway:right", "track")

	factor, rule := profile.Factor(edgePointOf(tags, DIRECTION_TARGET))
	assert.Equal(t, "track", rule, "right side serves travel along drawing order")
	assert.InDelta(t, 1/0.9, factor, 1e-12)

	factor, rule = profile.Factor(edgePointOf(tags, DIRECTION_SOURCE))
	assert.Equal(t, "tertiary", rule, "right side track does not serve opposite direction")
	assert.InDelta(t, 1/0.5, factor, 1e-12)

	both := tagsOf("highway", "tertiary", "cycleway:both", "lane")
	for _, direction := range []Direction{DIRECTION_SOURCE, DIRECTION_TARGET} {
		_, rule = profile.Factor(edgePointOf(both, direction))
		assert.Equal(t, "lane", rule)
	}

	shared := tagsOf("highway", "secondary", "cycleway:left", "share_busway", "surface", "sett")
	factor, rule = profile.Factor(edgePointOf(shared, DIRECTION_SOURCE))
	assert.Equal(t, "shared_lane", rule)
	assert.InDelta(t, 1/0.5, factor, 1e-12)
}

func TestBalancedFactors(t *testing.T) {
	profile := NewBalancedProfile(SLOPE_MULTIPLICATIVE, 0)
	cases := []struct {
		tags   []string
		rule   string
		factor float64
	}{
		{[]string{"highway", "cycleway"}, "cycleway", 1.0},
		{[]string{"highway", "cycleway", "surface", "gravel"}, "cycleway", 1 / 0.75},
		{[]string{"highway", "cycleway", "smoothness", "bad"}, "cycleway", 1 / 0.5},
		{[]string{"highway", "residential", "cyclestreet", "yes"}, "cyclestreet", 1.0},
		{[]string{"highway", "footway", "bicycle", "yes"}, "footway", 1 / 0.65},
		{[]string{"highway", "footway", "bicycle", "yes", "footway", "sidewalk"}, "footway", 1 / 0.4},
		{[]string{"highway", "footway", "bicycle", "dismount", "tunnel", "yes"}, "footway", 1 / 0.2},
		{[]string{"highway", "footway"}, "footway", 1 / 0.1},
		{[]string{"highway", "residential"}, "residential", 1 / 0.6},
		{[]string{"highway", "living_street", "bicycle", "yes"}, "residential", 1 / 0.85},
		{[]string{"highway", "unclassified", "surface", "cobblestone"}, "unclassified", 1 / 0.35},
		{[]string{"highway", "tertiary_link"}, "tertiary", 1 / 0.5},
		{[]string{"highway", "service"}, "service", 1 / 0.3},
		{[]string{"highway", "secondary"}, "secondary", 1 / 0.4},
		{[]string{"highway", "secondary_link"}, "secondary_link", 1 / 0.4},
		{[]string{"highway", "primary"}, "other_highway", 1 / 0.3},
		{[]string{"highway", "primary", "bicycle", "designated"}, "bicycle_allowed", 1 / 0.4},
		{[]string{"highway", "path", "informal", "yes"}, "informal", 1 / 0.05},
		{[]string{"highway", "path", "informal", "yes", "bicycle", "yes"}, "informal", 1 / 0.4},
		{[]string{"highway", "path", "bicycle", "dismount"}, "path_dismount", 1 / 0.1},
		{[]string{"highway", "steps", "bicycle", "yes"}, "steps_allowed", 1 / 0.06},
		{[]string{"highway", "service", "access", "private", "bicycle", "yes"}, "private_allowed", 1 / 0.4},
		{[]string{"highway", "service", "access", "customers"}, "customers", 1 / 0.2},
		{[]string{"highway", "primary", "routing:bicycle", "use_sidepath"}, "use_sidepath", 1 / 0.1},
		{[]string{"name", "nothing"}, "no_highway", 1 / 0.05},
	}
	for _, c := range cases {
		factor, rule := profile.Factor(edgePointOf(tagsOf(c.tags...), DIRECTION_TARGET))
		assert.Equal(t, c.rule, rule, c.tags)
		assert.InDelta(t, c.factor, factor, 1e-12, c.tags)
	}
}

func TestBicycleRouteMembership(t *testing.T) {
	profile := NewBalancedProfile(SLOPE_MULTIPLICATIVE, 0)
	record := baseRecord(tagsOf("highway", "residential"))
	record.InBicycleRoute = true
	factor, rule := profile.Factor(traversalOf(record, DIRECTION_TARGET))
	assert.Equal(t, "residential", rule)
	assert.InDelta(t, 1/0.7, factor, 1e-12)

	record.Tags = tagsOf("highway", "primary")
	factor, rule = profile.Factor(traversalOf(record, DIRECTION_TARGET))
	assert.Equal(t, "bicycle_route", rule)
	assert.InDelta(t, 1/0.6, factor, 1e-12)
}

func TestSnowLayering(t *testing.T) {
	profile := NewBalancedProfile(SLOPE_MULTIPLICATIVE, 0)

	record := baseRecord(tagsOf("highway", "cycleway", "winter_service", "no"))
	_, rule := profile.Factor(traversalOf(record, DIRECTION_TARGET))
	assert.Equal(t, "cycleway", rule, "closure tags alone do nothing without city snow")

	record.CitySnow = true
	_, rule = profile.Factor(traversalOf(record, DIRECTION_TARGET))
	assert.Equal(t, "snow", rule)

	record.WinterClosure = &WinterClosure{}
	_, rule = profile.Factor(traversalOf(record, DIRECTION_TARGET))
	assert.Equal(t, "cycleway", rule, "stored closure flags override tags")

	plain := baseRecord(tagsOf("highway", "cycleway"))
	plain.CitySnow = true
	_, rule = profile.Factor(traversalOf(plain, DIRECTION_TARGET))
	assert.Equal(t, "cycleway", rule, "city snow alone closes nothing")

	side := baseRecord(tagsOf("highway", "tertiary", "cycleway:left", "track", "cycleway:left:conditional", "no @ (snow)"))
	side.CitySnow = true
	_, rule = profile.Factor(traversalOf(side, DIRECTION_SOURCE))
	assert.Equal(t, "snow", rule, "left side serves travel against drawing order")
	_, rule = profile.Factor(traversalOf(side, DIRECTION_TARGET))
	assert.Equal(t, "tertiary", rule)
}

func TestScoreAndRoadWork(t *testing.T) {
	profile := NewBalancedProfile(SLOPE_MULTIPLICATIVE, 0)
	costWith := func(score *float64, roadWork bool) float64 {
		record := baseRecord(tagsOf("highway", "cycleway"))
		record.Score = score
		record.RoadWork = roadWork
		return profile.Cost(traversalOf(record, DIRECTION_TARGET))
	}
	assert.InDelta(t, 100.0, costWith(nil, false), 1e-9)
	assert.InDelta(t, 100.0, costWith(floatPtr(-1), false), 1e-9, "unknown score is neutral")
	assert.InDelta(t, 100.0, costWith(floatPtr(1), false), 1e-9)
	assert.InDelta(t, 100.0, costWith(floatPtr(1.5), false), 1e-9, "score above one is clamped")
	assert.InDelta(t, 100.0, costWith(floatPtr(math.NaN()), false), 1e-9)
	assert.InDelta(t, 200.0, costWith(floatPtr(0.5), false), 1e-9)
	assert.InDelta(t, 10000.0, costWith(floatPtr(0), false), 1e-6, "closed edge is strongly penalized")
	assert.InDelta(t, 300.0, costWith(nil, true), 1e-9)

	// Lower score never makes traversal cheaper
	previous := 0.0
	for _, s := range []float64{1, 0.9, 0.7, 0.5, 0.2, 0.05, 0} {
		cost := costWith(floatPtr(s), false)
		assert.GreaterOrEqual(t, cost, previous)
		previous = cost
	}
}

func TestSlopeInProfile(t *testing.T) {
	uphill := baseRecord(tagsOf("highway", "cycleway"))
	uphill.ElevationStart = floatPtr(0)
	uphill.ElevationEnd = floatPtr(10)

	multiplicative := NewBalancedProfile(SLOPE_MULTIPLICATIVE, 0)
	assert.InDelta(t, 200.0, multiplicative.Cost(traversalOf(uphill, DIRECTION_TARGET)), 1e-9)
	assert.InDelta(t, 70.0, multiplicative.Cost(traversalOf(uphill, DIRECTION_SOURCE)), 1e-9, "elevations are swapped against drawing order")

	additive := NewBalancedProfile(SLOPE_ADDITIVE, 0)
	assert.InDelta(t, 200.0, additive.Cost(traversalOf(uphill, DIRECTION_TARGET)), 1e-9)
	assert.InDelta(t, 100.0, additive.Cost(traversalOf(uphill, DIRECTION_SOURCE)), 1e-9)
}

func TestCostsAreFinitePositiveAndBounded(t *testing.T) {
	tagSets := [][]string{
		{"highway", "cycleway"},
		{"highway", "cycleway", "oneway", "yes"},
		{"highway", "residential", "surface", "gravel"},
		{"highway", "tertiary", "cycleway:right", "lane"},
		{"highway", "footway", "bicycle", "dismount"},
		{"highway", "steps"},
		{"highway", "motorway"},
		{"highway", "path", "informal", "yes"},
		{"highway", "service", "access", "customers", "winter_service", "no"},
		{},
	}
	scores := []*float64{nil, floatPtr(-1), floatPtr(0), floatPtr(0.3), floatPtr(1), floatPtr(math.NaN()), floatPtr(math.Inf(1))}
	elevations := [][2]*float64{{nil, nil}, {floatPtr(0), floatPtr(1000)}, {floatPtr(1000), floatPtr(0)}, {floatPtr(math.NaN()), floatPtr(0)}}
	profiles := []Profile{
		NewBalancedProfile(SLOPE_MULTIPLICATIVE, 0),
		NewBalancedProfile(SLOPE_ADDITIVE, 0),
		NewCorridorProfile(0),
	}
	for _, profile := range profiles {
		for _, tags := range tagSets {
			for _, score := range scores {
				for _, elev := range elevations {
					for _, roadWork := range []bool{false, true} {
						record := baseRecord(tagsOf(tags...))
						record.Score = score
						record.RoadWork = roadWork
						record.CitySnow = true
						record.ElevationStart, record.ElevationEnd = elev[0], elev[1]
						for _, direction := range []Direction{DIRECTION_SOURCE, DIRECTION_TARGET} {
							cost := profile.Cost(traversalOf(record, direction))
							require.False(t, math.IsNaN(cost), "%s %v", profile.Name(), tags)
							require.False(t, math.IsInf(cost, 0), "%s %v", profile.Name(), tags)
							require.Greater(t, cost, 0.0)
							require.LessOrEqual(t, cost, impassableFactor*100)
							require.GreaterOrEqual(t, cost, profile.MinFactor()*100-1e-9, "%s %v", profile.Name(), tags)
						}
					}
				}
			}
		}
	}
}

func TestZeroLengthEdge(t *testing.T) {
	record := baseRecord(tagsOf("highway", "cycleway"))
	record.Target = record.Source
	record.LengthMeters = 0
	profile := NewBalancedProfile(SLOPE_MULTIPLICATIVE, 0)
	cost := profile.Cost(traversalOf(record, DIRECTION_TARGET))
	assert.Greater(t, cost, 0.0)
	assert.InDelta(t, minEdgeLength, cost, 1e-12)
}

func TestCorridorProfile(t *testing.T) {
	profile := NewCorridorProfile(0)
	assert.Equal(t, defaultCorridorExpansions, profile.MaxExpansions())
	assert.Equal(t, 1.0, profile.MinFactor())
	assert.InDelta(t, 100.0, profile.Cost(edgePointOf(tagsOf("highway", "cycleway"), DIRECTION_TARGET)), 1e-9)
	assert.InDelta(t, 100.0, profile.Cost(edgePointOf(tagsOf("highway", "tertiary", "cycleway:left", "lane"), DIRECTION_TARGET)), 1e-9)
	assert.InDelta(t, 100.0, profile.Cost(edgePointOf(tagsOf("highway", "path", "bicycle", "designated"), DIRECTION_TARGET)), 1e-9)
	assert.InDelta(t, 1000.0, profile.Cost(edgePointOf(tagsOf("highway", "residential"), DIRECTION_TARGET)), 1e-9)
	assert.InDelta(t, 1000.0, profile.Cost(edgePointOf(tagsOf("highway", "tertiary", "cycleway", "shared_lane"), DIRECTION_TARGET)), 1e-9)
}

func TestProfileDefaults(t *testing.T) {
	balanced := NewBalancedProfile(0, 0)
	assert.Equal(t, SLOPE_MULTIPLICATIVE, balanced.SlopePolicy)
	assert.Equal(t, defaultBalancedExpansions, balanced.MaxExpansions())
	assert.InDelta(t, 0.7, balanced.MinFactor(), 1e-12)
	assert.Equal(t, 1.0, NewBalancedProfile(SLOPE_ADDITIVE, 10).MinFactor())
	assert.Equal(t, 10, NewBalancedProfile(SLOPE_ADDITIVE, 10).MaxExpansions())
}
