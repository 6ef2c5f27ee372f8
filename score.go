package veloinfo

import (
	"cmp"
	"math"
)

const (
	// Cost per meter of effectively impassable traversal. Finite so costs stay comparable
	impassableFactor = 1e6
	// Effective score of closed edges (consensus score = 0)
	closedScore = 0.01
	// Shortest length accounted for a traversal (meters)
	minEdgeLength = 0.01
	// Road work multiplier
	roadWorkFactor = 3.0
)

// effectiveScore converts nullable consensus score into divisor within (0, 1]
func effectiveScore(score *float64) float64 {
	if score == nil {
		return 1.0
	}
	s := *score
	switch {
	case math.IsNaN(s) || s < 0:
		// -1 is "no data yet"
		return 1.0
	case s == 0:
		return closedScore
	case s > 1:
		return 1.0
	}
	return s
}

// finiteCost maps any computed cost onto (0, impassable] range
func finiteCost(v, length float64) float64 {
	limit := impassableFactor * length
	if math.IsNaN(v) || math.IsInf(v, 0) || v > limit {
		return limit
	}
	if v <= 0 {
		return math.SmallestNonzeroFloat64
	}
	return v
}

// ScoreKey orders search entries by estimated cost. Sequence number breaks ties
// deterministically within one search
type ScoreKey struct {
	Priority float64
	Seq      uint64
}

// Less gives total order over keys, including NaN priorities
func (key ScoreKey) Less(other ScoreKey) bool {
	if c := cmp.Compare(key.Priority, other.Priority); c != 0 {
		return c < 0
	}
	return key.Seq < other.Seq
}
