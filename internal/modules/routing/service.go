// README: Routing service turns a provider leg into a rounded, cached route.
package routing

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"cabsys/internal/types"
)

type Service struct {
	provider Provider
	cache    Cache
	ttl      time.Duration
	log      logrus.FieldLogger
}

// NewService wires a provider. cache may be nil.
func NewService(provider Provider, cache Cache, ttl time.Duration, log logrus.FieldLogger) *Service {
	return &Service{provider: provider, cache: cache, ttl: ttl, log: log}
}

// Route returns the driving route between two points. Distance is in km,
// rounded to two decimals. Any provider failure is ErrUnavailable.
func (s *Service) Route(ctx context.Context, from, to types.Point) (*Route, error) {
	if !from.Valid() || !to.Valid() {
		return nil, ErrInvalidPoint
	}
	key := cacheKey(from, to)
	if s.cache != nil {
		var cached Route
		hit, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.log.WithError(err).Warn("route cache read failed")
		}
		if hit {
			return &cached, nil
		}
	}

	leg, err := s.provider.Route(ctx, from, to)
	if err != nil {
		s.log.WithError(err).Warn("routing provider failed")
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if leg.Meters < 0 {
		return nil, fmt.Errorf("%w: negative distance", ErrUnavailable)
	}
	r := &Route{
		DistanceKm:  types.Round2(leg.Meters / 1000),
		DurationSec: leg.Seconds,
		Geometry:    leg.Geometry,
	}
	if s.cache != nil && s.ttl > 0 {
		if err := s.cache.Set(ctx, key, r, s.ttl); err != nil {
			s.log.WithError(err).Warn("route cache write failed")
		}
	}
	return r, nil
}

func cacheKey(from, to types.Point) string {
	return fmt.Sprintf("%.5f,%.5f;%.5f,%.5f", from.Lat, from.Lng, to.Lat, to.Lng)
}
