package veloinfo

import (
	"math"
)

// SlopePolicy defines how slope adjustment is combined with the cost factor
type SlopePolicy uint16

const (
	SLOPE_MULTIPLICATIVE = SlopePolicy(iota + 1)
	SLOPE_ADDITIVE
)

func (iotaIdx SlopePolicy) String() string {
	return [...]string{"multiplicative", "additive"}[iotaIdx-1]
}

// ParseSlopePolicy returns SLOPE_MULTIPLICATIVE for unknown values
func ParseSlopePolicy(str string) SlopePolicy {
	if str == "additive" {
		return SLOPE_ADDITIVE
	}
	return SLOPE_MULTIPLICATIVE
}

const (
	uphillRate = 0.1
	// Maximum uphill multiplier. Steep slopes stay far below impassable cost
	maxUphillMultiplier = 3.0
	maxUphillAddition   = maxUphillMultiplier - 1.0
	downhillRate        = 0.05
	downhillSlopeLimit  = 6.0
	// Cheapest possible multiplier (downhill)
	minDownhillMultiplier = 1.0 - downhillRate*downhillSlopeLimit
)

// slopePercentage returns grade in percent, positive is uphill
func slopePercentage(elevStart, elevEnd, length float64) float64 {
	return (elevEnd - elevStart) / length * 100.0
}

// neutral is the identity under the policy combination operator
func (iotaIdx SlopePolicy) neutral() float64 {
	if iotaIdx == SLOPE_ADDITIVE {
		return 0.0
	}
	return 1.0
}

// floor returns lowest multiplier slope can apply to a factor
func (iotaIdx SlopePolicy) floor() float64 {
	if iotaIdx == SLOPE_ADDITIVE {
		return 1.0
	}
	return minDownhillMultiplier
}

// SlopeCost returns slope adjustment for traversal of given length. Missing elevations
// or non-positive length give neutral value
func (iotaIdx SlopePolicy) SlopeCost(elevStart, elevEnd *float64, length float64) float64 {
	if elevStart == nil || elevEnd == nil || length <= 0 {
		return iotaIdx.neutral()
	}
	slope := slopePercentage(*elevStart, *elevEnd, length)
	if math.IsNaN(slope) {
		return iotaIdx.neutral()
	}
	if iotaIdx == SLOPE_ADDITIVE {
		if slope <= 0 {
			return 0.0
		}
		return math.Min(uphillRate*slope, maxUphillAddition)
	}
	if slope >= 0 {
		return math.Min(1.0+uphillRate*slope, maxUphillMultiplier)
	}
	return 1.0 - downhillRate*math.Min(math.Abs(slope), downhillSlopeLimit)
}

// combine applies slope adjustment to the factor
func (iotaIdx SlopePolicy) combine(factor, slopeCost float64) float64 {
	if iotaIdx == SLOPE_ADDITIVE {
		return factor + slopeCost
	}
	return factor * slopeCost
}
