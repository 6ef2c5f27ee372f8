package veloinfo

type HighwayType uint16

const (
	HIGHWAY_UNDEFINED = HighwayType(iota)
	HIGHWAY_CYCLEWAY
	HIGHWAY_RESIDENTIAL
	HIGHWAY_LIVING_STREET
	HIGHWAY_UNCLASSIFIED
	HIGHWAY_TERTIARY
	HIGHWAY_TERTIARY_LINK
	HIGHWAY_SECONDARY
	HIGHWAY_SECONDARY_LINK
	HIGHWAY_PRIMARY
	HIGHWAY_PRIMARY_LINK
	HIGHWAY_TRUNK
	HIGHWAY_TRUNK_LINK
	HIGHWAY_MOTORWAY
	HIGHWAY_MOTORWAY_LINK
	HIGHWAY_SERVICE
	HIGHWAY_FOOTWAY
	HIGHWAY_PEDESTRIAN
	HIGHWAY_PATH
	HIGHWAY_TRACK
	HIGHWAY_STEPS
	HIGHWAY_PROPOSED
	HIGHWAY_CONSTRUCTION
	HIGHWAY_ABANDONED
	HIGHWAY_OTHER
)

func (iotaIdx HighwayType) String() string {
	return [...]string{"undefined", "cycleway", "residential", "living_street", "unclassified", "tertiary", "tertiary_link", "secondary", "secondary_link", "primary", "primary_link", "trunk", "trunk_link", "motorway", "motorway_link", "service", "footway", "pedestrian", "path", "track", "steps", "proposed", "construction", "abandoned", "other"}[iotaIdx]
}

// getHighwayType returns HIGHWAY_UNDEFINED for empty tag value and HIGHWAY_OTHER for unknown ones
func getHighwayType(str string) HighwayType {
	if str == "" {
		return HIGHWAY_UNDEFINED
	}
	if found, ok := highwaysTypes[str]; ok {
		return found
	}
	return HIGHWAY_OTHER
}

// isExcluded returns true for classes which are never routable by bicycle
func (iotaIdx HighwayType) isExcluded() bool {
	return iotaIdx == HIGHWAY_PROPOSED || iotaIdx == HIGHWAY_ABANDONED || iotaIdx == HIGHWAY_MOTORWAY || iotaIdx == HIGHWAY_MOTORWAY_LINK
}

var (
	highwaysTypes = map[string]HighwayType{
		"cycleway":       HIGHWAY_CYCLEWAY,
		"residential":    HIGHWAY_RESIDENTIAL,
		"living_street":  HIGHWAY_LIVING_STREET,
		"unclassified":   HIGHWAY_UNCLASSIFIED,
		"tertiary":       HIGHWAY_TERTIARY,
		"tertiary_link":  HIGHWAY_TERTIARY_LINK,
		"secondary":      HIGHWAY_SECONDARY,
		"secondary_link": HIGHWAY_SECONDARY_LINK,
		"primary":        HIGHWAY_PRIMARY,
		"primary_link":   HIGHWAY_PRIMARY_LINK,
		"trunk":          HIGHWAY_TRUNK,
		"trunk_link":     HIGHWAY_TRUNK_LINK,
		"motorway":       HIGHWAY_MOTORWAY,
		"motorway_link":  HIGHWAY_MOTORWAY_LINK,
		"service":        HIGHWAY_SERVICE,
		"footway":        HIGHWAY_FOOTWAY,
		"pedestrian":     HIGHWAY_PEDESTRIAN,
		"path":           HIGHWAY_PATH,
		"track":          HIGHWAY_TRACK,
		"steps":          HIGHWAY_STEPS,
		"proposed":       HIGHWAY_PROPOSED,
		"construction":   HIGHWAY_CONSTRUCTION,
		"abandoned":      HIGHWAY_ABANDONED,
	}
)
