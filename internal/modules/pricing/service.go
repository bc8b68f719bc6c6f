// README: Pricing service computes fares under the configured policy and manages per-class rates.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"cabsys/internal/types"
)

// RateStore holds per-class rate overrides.
type RateStore interface {
	GetRate(ctx context.Context, vehicleClass string) (Rate, error)
	ListRates(ctx context.Context) ([]Rate, error)
	UpsertRate(ctx context.Context, r Rate) error
}

type Service struct {
	policy   Policy
	currency string
	store    RateStore
}

// NewService builds a fare calculator. A nil store falls back to an in-memory
// table seeded from DefaultRates.
func NewService(policy Policy, currency string, store RateStore) *Service {
	if currency == "" {
		currency = types.DefaultCurrency
	}
	if store == nil {
		store = NewMemStore(currency)
	}
	return &Service{policy: policy, currency: currency, store: store}
}

func (s *Service) Policy() Policy {
	return s.policy
}

func (s *Service) Currency() string {
	return s.currency
}

// Compute returns the fare for distanceKm, rounded half-up to two decimals.
func (s *Service) Compute(ctx context.Context, distanceKm float64, in FareInput) (types.Money, error) {
	if math.IsNaN(distanceKm) || math.IsInf(distanceKm, 0) || distanceKm <= 0 {
		return types.Money{}, ErrInvalidDistance
	}
	if distanceKm > MaxDistanceKm {
		return types.Money{}, fmt.Errorf("%w: %.2f km exceeds %.0f km", ErrInvalidDistance, distanceKm, MaxDistanceKm)
	}
	switch s.policy {
	case PolicyPerClass:
		rate := in.RatePerKm
		if rate == 0 {
			var err error
			if rate, err = s.rate(ctx, NormalizeClass(in.VehicleClass)); err != nil {
				return types.Money{}, err
			}
		}
		if err := checkRate(rate); err != nil {
			return types.Money{}, err
		}
		return types.MoneyFromMajor(distanceKm*rate, s.currency), nil
	default:
		perKm := StandardPerKm
		if in.EcoRide {
			perKm = EcoPerKm
		}
		return types.MoneyFromMajor(BaseFare+distanceKm*perKm, s.currency), nil
	}
}

// Rates lists the effective rate of every known class, overrides applied.
func (s *Service) Rates(ctx context.Context) ([]Rate, error) {
	stored, err := s.store.ListRates(ctx)
	if err != nil {
		return nil, err
	}
	byClass := make(map[string]Rate, len(stored))
	for _, r := range stored {
		byClass[r.VehicleClass] = r
	}
	out := make([]Rate, 0, len(DefaultRates))
	for _, class := range classOrder {
		r, ok := byClass[class]
		if !ok {
			r = Rate{VehicleClass: class, PerKm: DefaultRates[class], Currency: s.currency}
		}
		out = append(out, r)
	}
	return out, nil
}

// SetRate overrides the per-km rate of a known class. The rate is stored in the
// service currency.
func (s *Service) SetRate(ctx context.Context, class string, perKm float64) (Rate, error) {
	class = NormalizeClass(class)
	if !KnownClass(class) {
		return Rate{}, fmt.Errorf("%w: %q", ErrUnknownClass, class)
	}
	if err := checkRate(perKm); err != nil {
		return Rate{}, err
	}
	r := Rate{VehicleClass: class, PerKm: perKm, Currency: s.currency}
	if err := s.store.UpsertRate(ctx, r); err != nil {
		return Rate{}, fmt.Errorf("store rate %s: %w", class, err)
	}
	return r, nil
}

func (s *Service) rate(ctx context.Context, class string) (float64, error) {
	r, err := s.store.GetRate(ctx, class)
	switch {
	case err == nil:
		if r.Currency != "" && !strings.EqualFold(r.Currency, s.currency) {
			return 0, fmt.Errorf("%w: %s rate is in %s", ErrCurrencyMismatch, class, r.Currency)
		}
		return r.PerKm, nil
	case !errors.Is(err, ErrRateNotFound):
		return 0, fmt.Errorf("load rate %s: %w", class, err)
	}
	if v, ok := DefaultRates[class]; ok {
		return v, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownClass, class)
}

func checkRate(perKm float64) error {
	if math.IsNaN(perKm) || math.IsInf(perKm, 0) || perKm <= 0 || perKm > MaxRatePerKm {
		return fmt.Errorf("%w: %v", ErrInvalidRate, perKm)
	}
	return nil
}

// NormalizeClass lower-cases and trims a vehicle class name ("Sedan" -> "sedan").
func NormalizeClass(class string) string {
	return strings.ToLower(strings.TrimSpace(class))
}
