package veloinfo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFiniteCost(t *testing.T) {
	assert.Equal(t, 5.0, finiteCost(5, 10))
	assert.Equal(t, impassableFactor*10, finiteCost(math.NaN(), 10))
	assert.Equal(t, impassableFactor*10, finiteCost(math.Inf(1), 10))
	assert.Equal(t, impassableFactor*10, finiteCost(1e300, 10))
	assert.Greater(t, finiteCost(0, 10), 0.0)
	assert.Greater(t, finiteCost(-3, 10), 0.0)
}

func TestEffectiveScore(t *testing.T) {
	assert.Equal(t, 1.0, effectiveScore(nil))
	assert.Equal(t, 1.0, effectiveScore(floatPtr(-1)))
	assert.Equal(t, closedScore, effectiveScore(floatPtr(0)))
	assert.Equal(t, 0.4, effectiveScore(floatPtr(0.4)))
	assert.Equal(t, 1.0, effectiveScore(floatPtr(7)))
}

func TestScoreKeyOrder(t *testing.T) {
	a := ScoreKey{Priority: 1, Seq: 5}
	b := ScoreKey{Priority: 2, Seq: 1}
	c := ScoreKey{Priority: 1, Seq: 6}
	assert.True(t, a.Less(b))
	assert.False(t, b.Less(a))
	assert.True(t, a.Less(c), "equal priorities are ordered by sequence")
	assert.False(t, a.Less(a))

	nan := ScoreKey{Priority: math.NaN(), Seq: 1}
	assert.True(t, nan.Less(a), "NaN sorts first and keeps the order total")
	assert.False(t, a.Less(nan))
}

func TestHeuristic(t *testing.T) {
	start := GeoPoint{Lon: -73.57, Lat: 45.50}
	near := GeoPoint{Lon: -73.56, Lat: 45.51}
	far := GeoPoint{Lon: -71.21, Lat: 46.81}

	profile := NewBalancedProfile(SLOPE_MULTIPLICATIVE, 0)
	h := newHeuristic(profile, start, near, defaultRelaxDistance, defaultRelaxFactor)
	assert.InDelta(t, profile.MinFactor(), h.MinFactor, 1e-12)
	assert.InDelta(t, greatCircleDistance(start, near)*profile.MinFactor(), h.Estimate(start, near), 1e-9)
	assert.Equal(t, 0.0, h.Estimate(near, near))

	relaxed := newHeuristic(profile, start, far, defaultRelaxDistance, defaultRelaxFactor)
	assert.InDelta(t, profile.MinFactor()*defaultRelaxFactor, relaxed.MinFactor, 1e-12)

	disabled := newHeuristic(profile, start, far, 0, defaultRelaxFactor)
	assert.InDelta(t, profile.MinFactor(), disabled.MinFactor, 1e-12)
}

func TestHeuristicIsConsistentOnFixture(t *testing.T) {
	profile := NewBalancedProfile(SLOPE_MULTIPLICATIVE, 0)
	for _, record := range fixtureRecords() {
		edge := NewEdge(record)
		for _, ep := range []EdgePoint{{Edge: edge, Direction: DIRECTION_TARGET}, {Edge: edge, Direction: DIRECTION_SOURCE}} {
			for _, goal := range fixtureNodes {
				h := newHeuristic(profile, ep.From(), goal, 0, 0)
				assert.LessOrEqual(t, h.Estimate(ep.From(), goal), profile.Cost(ep)+h.Estimate(ep.To(), goal)+1e-9)
			}
		}
	}
}
