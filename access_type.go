package veloinfo

// AccessType is the general `access` restriction of a way
type AccessType uint16

const (
	ACCESS_UNDEFINED = AccessType(iota)
	ACCESS_PRIVATE
	ACCESS_NO
	ACCESS_CUSTOMERS
)

func (iotaIdx AccessType) String() string {
	return [...]string{"undefined", "private", "no", "customers"}[iotaIdx]
}

// BicycleType is the value of `bicycle` tag
type BicycleType uint16

const (
	BICYCLE_UNDEFINED = BicycleType(iota)
	BICYCLE_YES
	BICYCLE_NO
	BICYCLE_DESIGNATED
	BICYCLE_DISMOUNT
	BICYCLE_DISCOURAGED
)

func (iotaIdx BicycleType) String() string {
	return [...]string{"undefined", "yes", "no", "designated", "dismount", "discouraged"}[iotaIdx]
}

// allowed returns true when `bicycle` tag explicitly overrides other restrictions
func (iotaIdx BicycleType) allowed() bool {
	return iotaIdx == BICYCLE_YES || iotaIdx == BICYCLE_DESIGNATED
}

var (
	accessTypes = map[string]AccessType{
		"private":   ACCESS_PRIVATE,
		"no":        ACCESS_NO,
		"customers": ACCESS_CUSTOMERS,
	}

	bicycleTypes = map[string]BicycleType{
		"yes":         BICYCLE_YES,
		"permissive":  BICYCLE_YES,
		"no":          BICYCLE_NO,
		"designated":  BICYCLE_DESIGNATED,
		"dismount":    BICYCLE_DISMOUNT,
		"discouraged": BICYCLE_DISCOURAGED,
	}
)

func getAccessType(str string) AccessType {
	return accessTypes[str]
}

func getBicycleType(str string) BicycleType {
	return bicycleTypes[str]
}
