package veloinfo

// traversalClass is classification of an edge bound to travel direction
type traversalClass struct {
	EdgeTags
	side           Side
	inBicycleRoute bool
	onewayViolated bool
	snowClosed     bool
}

func classifyTraversal(ep EdgePoint) traversalClass {
	tc := traversalClass{
		EdgeTags:       ep.parsed,
		side:           ep.side(),
		inBicycleRoute: ep.InBicycleRoute,
	}
	tc.onewayViolated = onewayViolated(ep.parsed, ep.againstDrawing())
	if ep.CitySnow {
		tc.snowClosed = ep.snowClosure().closed(tc.side)
	}
	return tc
}

// onewayViolated checks oneway restriction. Bicycle exemption and two-way side infrastructure lift it
func onewayViolated(et EdgeTags, againstDrawing bool) bool {
	if et.OnewayBicycle == ONEWAY_NO || et.CyclewayLeftOneway == ONEWAY_NO || et.CyclewayRightOneway == ONEWAY_NO {
		return false
	}
	if et.OnewayBicycle == ONEWAY_YES && againstDrawing {
		return true
	}
	switch et.Oneway {
	case ONEWAY_YES:
		return againstDrawing
	case ONEWAY_REVERSE:
		return !againstDrawing
	}
	return false
}

// hasInfrastructure reports whether infrastructure matching the predicate serves this traversal.
// Side specific values serve only the matching travel direction unless the side is two-way
func (tc *traversalClass) hasInfrastructure(match func(kind CyclewayType) bool) bool {
	if match(tc.Cycleway) || match(tc.CyclewayBoth) {
		return true
	}
	if match(tc.CyclewayLeft) && (tc.side == SIDE_LEFT || tc.CyclewayLeftOneway == ONEWAY_NO) {
		return true
	}
	return match(tc.CyclewayRight) && (tc.side == SIDE_RIGHT || tc.CyclewayRightOneway == ONEWAY_NO)
}

func isCyclewayKind(kind CyclewayType) func(CyclewayType) bool {
	return func(other CyclewayType) bool { return other == kind }
}

// badPavement is for crossings and bad smoothness of cycling infrastructure
func (tc *traversalClass) badPavement() bool {
	return tc.Cycleway == CYCLEWAY_CROSSING || tc.SmoothnessBad
}

func (tc *traversalClass) degradedSurface() bool {
	return tc.Surface != SURFACE_UNDEFINED
}

// costRule maps classification to base factor (cost per meter). First matching rule wins
type costRule struct {
	name    string
	match   func(tc *traversalClass) bool
	factor  func(tc *traversalClass) float64
	exclude bool
}

func constFactor(f float64) func(tc *traversalClass) float64 {
	return func(*traversalClass) float64 { return f }
}

var balancedRules = []costRule{
	// Hard exclusions
	{name: "oneway", exclude: true, match: func(tc *traversalClass) bool { return tc.onewayViolated }},
	{name: "snow", exclude: true, match: func(tc *traversalClass) bool { return tc.snowClosed }},
	{name: "bicycle_no", exclude: true, match: func(tc *traversalClass) bool { return tc.Bicycle == BICYCLE_NO }},
	{name: "private", exclude: true, match: func(tc *traversalClass) bool {
		return (tc.Access == ACCESS_PRIVATE || tc.Access == ACCESS_NO) && !tc.Bicycle.allowed()
	}},
	{name: "forbidden_highway", exclude: true, match: func(tc *traversalClass) bool {
		return tc.Highway.isExcluded() || tc.Abandoned
	}},
	{name: "steps", exclude: true, match: func(tc *traversalClass) bool {
		return tc.Highway == HIGHWAY_STEPS && !tc.Bicycle.allowed()
	}},
	// Discouraged
	{name: "private_allowed", factor: constFactor(1 / 0.4), match: func(tc *traversalClass) bool {
		return tc.Access == ACCESS_PRIVATE || tc.Access == ACCESS_NO
	}},
	{name: "customers", factor: constFactor(1 / 0.2), match: func(tc *traversalClass) bool { return tc.Access == ACCESS_CUSTOMERS }},
	{name: "informal", match: func(tc *traversalClass) bool { return tc.Informal }, factor: func(tc *traversalClass) float64 {
		if tc.Bicycle.allowed() {
			return 1 / 0.4
		}
		return 1 / 0.05
	}},
	{name: "steps_allowed", factor: constFactor(1 / 0.06), match: func(tc *traversalClass) bool { return tc.Highway == HIGHWAY_STEPS }},
	{name: "path_dismount", factor: constFactor(1 / 0.1), match: func(tc *traversalClass) bool {
		return tc.Highway == HIGHWAY_PATH && (tc.Bicycle == BICYCLE_DISMOUNT || tc.Bicycle == BICYCLE_DISCOURAGED)
	}},
	{name: "discouraged", factor: constFactor(1 / 0.1), match: func(tc *traversalClass) bool { return tc.Bicycle == BICYCLE_DISCOURAGED }},
	{name: "use_sidepath", factor: constFactor(1 / 0.1), match: func(tc *traversalClass) bool { return tc.UseSidepath }},
	// Preferred
	{name: "cycleway", match: func(tc *traversalClass) bool { return tc.Highway == HIGHWAY_CYCLEWAY }, factor: func(tc *traversalClass) float64 {
		switch {
		case tc.Surface.loose():
			return 1 / 0.75
		case tc.badPavement():
			return 1 / 0.5
		}
		return 1.0
	}},
	{name: "cyclestreet", factor: constFactor(1.0), match: func(tc *traversalClass) bool { return tc.Cyclestreet }},
	{name: "track", match: func(tc *traversalClass) bool { return tc.hasInfrastructure(isCyclewayKind(CYCLEWAY_TRACK)) }, factor: func(tc *traversalClass) float64 {
		if tc.badPavement() {
			return 1 / 0.5
		}
		return 1 / 0.9
	}},
	{name: "lane", match: func(tc *traversalClass) bool { return tc.hasInfrastructure(isCyclewayKind(CYCLEWAY_LANE)) }, factor: func(tc *traversalClass) float64 {
		if tc.badPavement() {
			return 1 / 0.5
		}
		return 1 / 0.8
	}},
	{name: "shared_lane", match: func(tc *traversalClass) bool {
		return tc.hasInfrastructure(CyclewayType.shared)
	}, factor: func(tc *traversalClass) float64 {
		if tc.badPavement() || tc.Surface.rough() {
			return 1 / 0.5
		}
		return 1 / 0.7
	}},
	{name: "footway", match: func(tc *traversalClass) bool { return tc.Highway == HIGHWAY_FOOTWAY }, factor: func(tc *traversalClass) float64 {
		switch {
		case tc.Bicycle.allowed() && tc.Footway == FOOTWAY_SIDEWALK:
			return 1 / 0.4
		case tc.Bicycle.allowed():
			return 1 / 0.65
		case tc.Bicycle == BICYCLE_DISMOUNT && tc.Tunnel:
			return 1 / 0.2
		case tc.Bicycle == BICYCLE_DISMOUNT:
			return 1 / 0.3
		}
		return 1 / 0.1
	}},
	{name: "residential", match: func(tc *traversalClass) bool {
		return tc.Highway == HIGHWAY_RESIDENTIAL || tc.Highway == HIGHWAY_LIVING_STREET
	}, factor: func(tc *traversalClass) float64 {
		switch {
		case tc.degradedSurface():
			return 1 / 0.4
		case tc.Bicycle.allowed():
			return 1 / 0.85
		case tc.inBicycleRoute:
			return 1 / 0.7
		}
		return 1 / 0.6
	}},
	{name: "unclassified", match: func(tc *traversalClass) bool { return tc.Highway == HIGHWAY_UNCLASSIFIED }, factor: func(tc *traversalClass) float64 {
		switch {
		case tc.degradedSurface():
			return 1 / 0.35
		case tc.inBicycleRoute:
			return 1 / 0.6
		}
		return 1 / 0.5
	}},
	{name: "tertiary", match: func(tc *traversalClass) bool {
		return tc.Highway == HIGHWAY_TERTIARY || tc.Highway == HIGHWAY_TERTIARY_LINK
	}, factor: func(tc *traversalClass) float64 {
		switch {
		case tc.degradedSurface():
			return 1 / 0.3
		case tc.inBicycleRoute:
			return 1 / 0.6
		}
		return 1 / 0.5
	}},
	{name: "service", match: func(tc *traversalClass) bool { return tc.Highway == HIGHWAY_SERVICE }, factor: func(tc *traversalClass) float64 {
		if tc.degradedSurface() {
			return 1 / 0.2
		}
		return 1 / 0.3
	}},
	{name: "secondary", match: func(tc *traversalClass) bool { return tc.Highway == HIGHWAY_SECONDARY }, factor: func(tc *traversalClass) float64 {
		switch {
		case tc.degradedSurface():
			return 1 / 0.3
		case tc.inBicycleRoute:
			return 1 / 0.6
		}
		return 1 / 0.4
	}},
	{name: "bicycle_route", factor: constFactor(1 / 0.6), match: func(tc *traversalClass) bool { return tc.inBicycleRoute }},
	{name: "bicycle_allowed", factor: constFactor(1 / 0.4), match: func(tc *traversalClass) bool { return tc.Bicycle.allowed() }},
	{name: "secondary_link", factor: constFactor(1 / 0.4), match: func(tc *traversalClass) bool { return tc.Highway == HIGHWAY_SECONDARY_LINK }},
	// Use with caution
	{name: "other_highway", factor: constFactor(1 / 0.3), match: func(tc *traversalClass) bool { return tc.Highway != HIGHWAY_UNDEFINED }},
	{name: "no_highway", factor: constFactor(1 / 0.05), match: func(*traversalClass) bool { return true }},
}

// Best possible base factor of balanced rules
const bestBalancedFactor = 1.0

// matchRule returns the first rule matching the traversal. The last rule matches everything
func matchRule(rules []costRule, tc *traversalClass) *costRule {
	for i := range rules {
		if rules[i].match(tc) {
			return &rules[i]
		}
	}
	return &rules[len(rules)-1]
}
