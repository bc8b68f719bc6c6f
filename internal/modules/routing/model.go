// README: Route results and provider contract.
package routing

import (
	"context"
	"errors"
	"time"

	"cabsys/internal/types"
)

var (
	// ErrUnavailable means no route could be obtained; callers must not price without one.
	ErrUnavailable  = errors.New("route service unavailable")
	ErrInvalidPoint = errors.New("invalid coordinates")
)

type Route struct {
	DistanceKm  float64       `json:"distanceKm"`
	DurationSec float64       `json:"durationSec"`
	Geometry    []types.Point `json:"geometry"`
}

// Leg is a provider's raw answer in meters and seconds.
type Leg struct {
	Meters   float64
	Seconds  float64
	Geometry []types.Point
}

type Provider interface {
	Route(ctx context.Context, from, to types.Point) (Leg, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
}
