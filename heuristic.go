package veloinfo

const (
	defaultRelaxDistance = 100_000.0
	defaultRelaxFactor   = 1.41
)

// Heuristic estimates remaining cost as great-circle distance times the cheapest factor
// of the active profile. That makes it admissible and consistent.
//
// Queries longer than RelaxDistance (meters) use the factor scaled by RelaxFactor.
// Such searches converge faster but optimality is no longer guaranteed.
type Heuristic struct {
	MinFactor     float64
	RelaxDistance float64
	RelaxFactor   float64
}

// newHeuristic returns heuristic for a single query between two points
func newHeuristic(profile Profile, start, end GeoPoint, relaxDistance, relaxFactor float64) Heuristic {
	h := Heuristic{
		MinFactor:     profile.MinFactor(),
		RelaxDistance: relaxDistance,
		RelaxFactor:   relaxFactor,
	}
	if relaxDistance > 0 && relaxFactor > 1 && greatCircleDistance(start, end) > relaxDistance {
		h.MinFactor *= relaxFactor
	}
	return h
}

// Estimate returns lower bound of cost between two points
func (h Heuristic) Estimate(from, to GeoPoint) float64 {
	return greatCircleDistance(from, to) * h.MinFactor
}
