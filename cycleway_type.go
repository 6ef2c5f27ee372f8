package veloinfo

// CyclewayType is the value of `cycleway`, `cycleway:left`, `cycleway:right` and `cycleway:both` tags
type CyclewayType uint16

const (
	CYCLEWAY_UNDEFINED = CyclewayType(iota)
	CYCLEWAY_TRACK
	CYCLEWAY_LANE
	CYCLEWAY_CROSSING
	CYCLEWAY_SHARED_LANE
	CYCLEWAY_SHARE_BUSWAY
	CYCLEWAY_SEPARATE
	CYCLEWAY_NO
)

func (iotaIdx CyclewayType) String() string {
	return [...]string{"undefined", "track", "lane", "crossing", "shared_lane", "share_busway", "separate", "no"}[iotaIdx]
}

// shared returns true for lanes shared with motor traffic or buses
func (iotaIdx CyclewayType) shared() bool {
	return iotaIdx == CYCLEWAY_SHARED_LANE || iotaIdx == CYCLEWAY_SHARE_BUSWAY
}

func getCyclewayType(str string) CyclewayType {
	return cyclewayTypes[str]
}

// OnewayType is the value of `oneway` family of tags
type OnewayType uint16

const (
	ONEWAY_UNDEFINED = OnewayType(iota)
	ONEWAY_YES
	ONEWAY_NO
	ONEWAY_REVERSE
)

func (iotaIdx OnewayType) String() string {
	return [...]string{"undefined", "yes", "no", "-1"}[iotaIdx]
}

func getOnewayType(str string) OnewayType {
	return onewayTypes[str]
}

// SurfaceType is the value of `surface` tag (only values which matter for cycling)
type SurfaceType uint16

const (
	SURFACE_UNDEFINED = SurfaceType(iota)
	SURFACE_SETT
	SURFACE_COBBLESTONE
	SURFACE_GRAVEL
	SURFACE_FINE_GRAVEL
	SURFACE_CHIPSEAL
)

func (iotaIdx SurfaceType) String() string {
	return [...]string{"undefined", "sett", "cobblestone", "gravel", "fine_gravel", "chipseal"}[iotaIdx]
}

func getSurfaceType(str string) SurfaceType {
	return surfaceTypes[str]
}

// rough returns true for paved surfaces which shake a bicycle
func (iotaIdx SurfaceType) rough() bool {
	return iotaIdx == SURFACE_SETT || iotaIdx == SURFACE_COBBLESTONE
}

// loose returns true for unpaved surfaces
func (iotaIdx SurfaceType) loose() bool {
	return iotaIdx == SURFACE_GRAVEL || iotaIdx == SURFACE_FINE_GRAVEL
}

// FootwayType is the value of `footway` tag
type FootwayType uint16

const (
	FOOTWAY_UNDEFINED = FootwayType(iota)
	FOOTWAY_SIDEWALK
	FOOTWAY_CROSSING
)

func (iotaIdx FootwayType) String() string {
	return [...]string{"undefined", "sidewalk", "crossing"}[iotaIdx]
}

func getFootwayType(str string) FootwayType {
	return footwayTypes[str]
}

var (
	cyclewayTypes = map[string]CyclewayType{
		"track":          CYCLEWAY_TRACK,
		"opposite_track": CYCLEWAY_TRACK,
		"lane":           CYCLEWAY_LANE,
		"opposite_lane":  CYCLEWAY_LANE,
		"crossing":       CYCLEWAY_CROSSING,
		"shared_lane":    CYCLEWAY_SHARED_LANE,
		"share_busway":   CYCLEWAY_SHARE_BUSWAY,
		"separate":       CYCLEWAY_SEPARATE,
		"no":             CYCLEWAY_NO,
	}

	onewayTypes = map[string]OnewayType{
		"yes": ONEWAY_YES,
		"1":   ONEWAY_YES,
		"no":  ONEWAY_NO,
		"0":   ONEWAY_NO,
		"-1":  ONEWAY_REVERSE,
	}

	surfaceTypes = map[string]SurfaceType{
		"sett":               SURFACE_SETT,
		"cobblestone":        SURFACE_COBBLESTONE,
		"unhewn_cobblestone": SURFACE_COBBLESTONE,
		"gravel":             SURFACE_GRAVEL,
		"fine_gravel":        SURFACE_FINE_GRAVEL,
		"chipseal":           SURFACE_CHIPSEAL,
	}

	footwayTypes = map[string]FootwayType{
		"sidewalk": FOOTWAY_SIDEWALK,
		"crossing": FOOTWAY_CROSSING,
	}
)
