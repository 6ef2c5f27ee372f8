package veloinfo

import (
	"strings"

	"github.com/paulmach/osm"
)

// Side is a side of the way relative to its drawing direction
type Side uint16

const (
	SIDE_LEFT = Side(iota + 1)
	SIDE_RIGHT
)

func (iotaIdx Side) String() string {
	return [...]string{"left", "right"}[iotaIdx-1]
}

// WinterClosure holds seasonal closure flags of an edge: whole edge or one of its sides.
type WinterClosure struct {
	Edge  bool
	Left  bool
	Right bool
}

// closed reports whether travelling on given side is closed by snow
func (wc WinterClosure) closed(side Side) bool {
	if wc.Edge {
		return true
	}
	switch side {
	case SIDE_LEFT:
		return wc.Left
	case SIDE_RIGHT:
		return wc.Right
	}
	return false
}

// EdgeTags is categorical view of raw OSM tags of an edge. It is computed once per edge.
type EdgeTags struct {
	Highway  HighwayType
	Bicycle  BicycleType
	Access   AccessType
	Footway  FootwayType
	Surface  SurfaceType
	Cycleway CyclewayType
	// Side specific infrastructure. `cycleway:both` is folded into both of them.
	CyclewayLeft        CyclewayType
	CyclewayRight       CyclewayType
	CyclewayBoth        CyclewayType
	Oneway              OnewayType
	OnewayBicycle       OnewayType
	CyclewayLeftOneway  OnewayType
	CyclewayRightOneway OnewayType
	SmoothnessBad       bool
	Tunnel              bool
	Cyclestreet         bool
	Informal            bool
	Abandoned           bool
	UseSidepath         bool
	Indoor              bool
	WinterServiceNo     bool
	SnowClosure         WinterClosure
}

// parseEdgeTags classifies raw tags
func parseEdgeTags(tags osm.Tags) EdgeTags {
	surface := tags.Find("surface")
	if surface == "" {
		// Frequent misspelling in imported data
		surface = tags.Find("suface")
	}
	et := EdgeTags{
		Highway:             getHighwayType(tags.Find("highway")),
		Bicycle:             getBicycleType(tags.Find("bicycle")),
		Access:              getAccessType(tags.Find("access")),
		Footway:             getFootwayType(tags.Find("footway")),
		Surface:             getSurfaceType(surface),
		Cycleway:            getCyclewayType(tags.Find("cycleway")),
		CyclewayLeft:        getCyclewayType(tags.Find("cycleway:left")),
		CyclewayRight:       getCyclewayType(tags.Find("cycleway:right")),
		CyclewayBoth:        getCyclewayType(tags.Find("cycleway:both")),
		Oneway:              getOnewayType(tags.Find("oneway")),
		OnewayBicycle:       getOnewayType(tags.Find("oneway:bicycle")),
		CyclewayLeftOneway:  getOnewayType(tags.Find("cycleway:left:oneway")),
		CyclewayRightOneway: getOnewayType(tags.Find("cycleway:right:oneway")),
		SmoothnessBad:       tags.Find("smoothness") == "bad",
		Tunnel:              tags.Find("tunnel") == "yes",
		Cyclestreet:         tags.Find("cyclestreet") == "yes",
		Informal:            tags.Find("informal") == "yes",
		Abandoned:           tags.Find("abandoned") == "yes",
		UseSidepath:         tags.Find("routing:bicycle") == "use_sidepath",
		Indoor:              tags.Find("indoor") == "yes",
		WinterServiceNo:     tags.Find("winter_service") == "no",
	}
	if et.CyclewayLeft == CYCLEWAY_UNDEFINED {
		et.CyclewayLeft = et.CyclewayBoth
	}
	if et.CyclewayRight == CYCLEWAY_UNDEFINED {
		et.CyclewayRight = et.CyclewayBoth
	}
	et.SnowClosure = WinterClosure{
		Edge:  isSnowClosure(tags.Find("cycleway:conditional")) || isSnowClosure(tags.Find("cycleway:both:conditional")),
		Left:  isSnowClosure(tags.Find("cycleway:left:conditional")),
		Right: isSnowClosure(tags.Find("cycleway:right:conditional")),
	}
	return et
}

// isSnowClosure checks if conditional restriction looks like `no @ (snow)`.
// Whitespaces and parentheses are ignored, several restrictions are separated by `;`
func isSnowClosure(conditional string) bool {
	normalized := strings.ToLower(conditionalReplacer.Replace(conditional))
	for _, restriction := range strings.Split(normalized, ";") {
		value, condition, ok := strings.Cut(restriction, "@")
		if ok && value == "no" && strings.Contains(condition, "snow") {
			return true
		}
	}
	return false
}

var conditionalReplacer = strings.NewReplacer(" ", "", "\t", "", "(", "", ")", "")

// routable reports whether an edge may hold a node for snapping query coordinates
func (et EdgeTags) routable() bool {
	if _, excluded := nearestExcludeHighways[et.Highway]; excluded {
		return false
	}
	if et.Highway == HIGHWAY_PEDESTRIAN && !(et.Bicycle.allowed() || et.Bicycle == BICYCLE_DISMOUNT) {
		return false
	}
	if et.Footway == FOOTWAY_SIDEWALK || et.Indoor {
		return false
	}
	if et.Access != ACCESS_UNDEFINED && et.Access != ACCESS_CUSTOMERS && !et.Bicycle.allowed() {
		return false
	}
	return et.Bicycle != BICYCLE_NO
}

var (
	// Highways which never hold snapping node for a bicycle query
	nearestExcludeHighways = map[HighwayType]struct{}{
		HIGHWAY_FOOTWAY:       {},
		HIGHWAY_TRACK:         {},
		HIGHWAY_PATH:          {},
		HIGHWAY_STEPS:         {},
		HIGHWAY_MOTORWAY:      {},
		HIGHWAY_MOTORWAY_LINK: {},
		HIGHWAY_PROPOSED:      {},
		HIGHWAY_ABANDONED:     {},
	}
)
