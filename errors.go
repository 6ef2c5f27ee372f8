package veloinfo

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrNodeNotFound is returned when requested node has no edges
	ErrNodeNotFound = errors.New("node not found")
	// ErrStoreUnavailable wraps failures of edge store queries
	ErrStoreUnavailable = errors.New("edge store unavailable")
	// ErrSearchAborted is returned when progress consumer has gone
	ErrSearchAborted = errors.New("search aborted")
	// ErrLockTimeout is returned when invalidation could not take the cache lock in time
	ErrLockTimeout = errors.New("cache lock timeout")
)

// CoordinateNotFoundError tells that no routable node is close enough to query coordinates
type CoordinateNotFoundError struct {
	Lon    float64
	Lat    float64
	Radius float64
}

func (err *CoordinateNotFoundError) Error() string {
	return fmt.Sprintf("no routable node within %.0f meters of lon %f lat %f", err.Radius, err.Lon, err.Lat)
}

// Is makes errors.Is(err, ErrNodeNotFound) true for coordinate lookups as well
func (err *CoordinateNotFoundError) Is(target error) bool {
	return target == ErrNodeNotFound
}
