package pricing

import (
	"context"
	"errors"
	"math"
	"testing"
)

type stubRates map[string]float64

func (s stubRates) GetRate(_ context.Context, class string) (Rate, error) {
	v, ok := s[class]
	if !ok {
		return Rate{}, ErrRateNotFound
	}
	return Rate{VehicleClass: class, PerKm: v, Currency: "INR"}, nil
}

func (s stubRates) ListRates(context.Context) ([]Rate, error) { return nil, nil }

func (s stubRates) UpsertRate(_ context.Context, r Rate) error {
	s[r.VehicleClass] = r.PerKm
	return nil
}

type failingRates struct{}

func (failingRates) GetRate(context.Context, string) (Rate, error) {
	return Rate{}, errors.New("connection refused")
}

func (failingRates) ListRates(context.Context) ([]Rate, error) {
	return nil, errors.New("connection refused")
}

func (failingRates) UpsertRate(context.Context, Rate) error {
	return errors.New("connection refused")
}

type usdRates struct{ stubRates }

func (u usdRates) GetRate(ctx context.Context, class string) (Rate, error) {
	r, err := u.stubRates.GetRate(ctx, class)
	r.Currency = "USD"
	return r, err
}

func TestService_Compute_BaseEco(t *testing.T) {
	s := NewService(PolicyBaseEco, "INR", nil)

	tests := []struct {
		name      string
		distance  float64
		eco       bool
		wantPaise int64
	}{
		{"standard 3.5km", 3.5, false, 10250},
		{"eco 10km", 10, true, 17000},
		{"standard 10km", 10, false, 20000},
		{"eco fractional", 2.345, true, 7814}, // 50 + 28.14
		{"tiny distance", 0.01, false, 5015},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Compute(context.Background(), tt.distance, FareInput{VehicleClass: "Sedan", EcoRide: tt.eco})
			if err != nil {
				t.Fatalf("Compute() error = %v", err)
			}
			if got.Amount != tt.wantPaise {
				t.Errorf("Compute() = %d, want %d", got.Amount, tt.wantPaise)
			}
			if got.Currency != "INR" {
				t.Errorf("currency = %q", got.Currency)
			}
		})
	}
}

func TestService_Compute_PerClass(t *testing.T) {
	s := NewService(PolicyPerClass, "INR", nil)

	tests := []struct {
		class     string
		distance  float64
		wantPaise int64
	}{
		{"sedan", 10, 10000},
		{"SUV", 4, 6000},
		{"luxury", 2.5, 6250},
		{"auto", 3, 2400},
		{"bike", 7.25, 3625},
		{" Hatchback ", 1, 1000},
	}
	for _, tt := range tests {
		t.Run(tt.class, func(t *testing.T) {
			got, err := s.Compute(context.Background(), tt.distance, FareInput{VehicleClass: tt.class})
			if err != nil {
				t.Fatalf("Compute() error = %v", err)
			}
			if got.Amount != tt.wantPaise {
				t.Errorf("Compute() = %d, want %d", got.Amount, tt.wantPaise)
			}
		})
	}
}

func TestService_Compute_PerClassStoreOverride(t *testing.T) {
	s := NewService(PolicyPerClass, "INR", stubRates{"sedan": 11})
	got, err := s.Compute(context.Background(), 10, FareInput{VehicleClass: "sedan"})
	if err != nil {
		t.Fatal(err)
	}
	if got.Amount != 11000 {
		t.Fatalf("override not applied, got %d", got.Amount)
	}
	// Classes missing from the store fall back to the default table.
	got, err = s.Compute(context.Background(), 10, FareInput{VehicleClass: "bike"})
	if err != nil {
		t.Fatal(err)
	}
	if got.Amount != 5000 {
		t.Fatalf("fallback not applied, got %d", got.Amount)
	}
}

func TestService_Compute_Errors(t *testing.T) {
	ctx := context.Background()
	perClass := NewService(PolicyPerClass, "INR", nil)
	for _, d := range []float64{0, -1, math.NaN(), math.Inf(1), MaxDistanceKm + 0.01, 1e17, 1e20} {
		if _, err := perClass.Compute(ctx, d, FareInput{VehicleClass: "sedan"}); !errors.Is(err, ErrInvalidDistance) {
			t.Errorf("distance %v: expected ErrInvalidDistance, got %v", d, err)
		}
	}
	if _, err := perClass.Compute(ctx, 5, FareInput{VehicleClass: "rickshaw-xl"}); !errors.Is(err, ErrUnknownClass) {
		t.Errorf("expected ErrUnknownClass, got %v", err)
	}
	broken := NewService(PolicyPerClass, "INR", failingRates{})
	if _, err := broken.Compute(ctx, 5, FareInput{VehicleClass: "sedan"}); err == nil || errors.Is(err, ErrUnknownClass) {
		t.Errorf("expected store error, got %v", err)
	}
}

func TestService_Compute_Deterministic(t *testing.T) {
	s := NewService(PolicyBaseEco, "INR", nil)
	a, _ := s.Compute(context.Background(), 7.77, FareInput{EcoRide: true})
	b, _ := s.Compute(context.Background(), 7.77, FareInput{EcoRide: true})
	if a != b {
		t.Fatalf("fare not deterministic: %v vs %v", a, b)
	}
}

func TestService_Compute_HugeDistanceNeverNegative(t *testing.T) {
	ctx := context.Background()
	for _, policy := range []Policy{PolicyBaseEco, PolicyPerClass} {
		s := NewService(policy, "INR", nil)
		for _, d := range []float64{1e15, 1e17, 1e20, math.MaxFloat64} {
			got, err := s.Compute(ctx, d, FareInput{VehicleClass: "luxury"})
			if !errors.Is(err, ErrInvalidDistance) {
				t.Fatalf("%s %g km: expected ErrInvalidDistance, got fare %d err %v", policy, d, got.Amount, err)
			}
		}
		got, err := s.Compute(ctx, MaxDistanceKm, FareInput{VehicleClass: "luxury"})
		if err != nil || got.Amount <= 0 {
			t.Fatalf("%s at the limit: fare %d err %v", policy, got.Amount, err)
		}
	}
}

func TestService_Compute_PerClassCabRate(t *testing.T) {
	ctx := context.Background()
	s := NewService(PolicyPerClass, "INR", nil)

	// The cab's own rate wins over the class table.
	got, err := s.Compute(ctx, 10, FareInput{VehicleClass: "sedan", RatePerKm: 12})
	if err != nil || got.Amount != 12000 {
		t.Fatalf("cab rate: fare %d err %v", got.Amount, err)
	}
	if _, err := s.Compute(ctx, 10, FareInput{VehicleClass: "sedan", RatePerKm: -3}); !errors.Is(err, ErrInvalidRate) {
		t.Fatalf("expected ErrInvalidRate, got %v", err)
	}
	// Base/eco ignores per-cab rates.
	base := NewService(PolicyBaseEco, "INR", nil)
	got, _ = base.Compute(ctx, 10, FareInput{VehicleClass: "sedan", RatePerKm: 99})
	if got.Amount != 20000 {
		t.Fatalf("base_eco fare %d", got.Amount)
	}
}

func TestService_Rates(t *testing.T) {
	ctx := context.Background()
	s := NewService(PolicyPerClass, "INR", nil)

	r, err := s.SetRate(ctx, " SUV ", 18)
	if err != nil {
		t.Fatalf("SetRate() error = %v", err)
	}
	if r.VehicleClass != "suv" || r.Currency != "INR" {
		t.Fatalf("unexpected rate %+v", r)
	}
	got, _ := s.Compute(ctx, 10, FareInput{VehicleClass: "suv"})
	if got.Amount != 18000 {
		t.Fatalf("override not used, fare %d", got.Amount)
	}

	rates, err := s.Rates(ctx)
	if err != nil {
		t.Fatalf("Rates() error = %v", err)
	}
	if len(rates) != len(DefaultRates) || rates[0].VehicleClass != ClassSedan || rates[1].PerKm != 18 {
		t.Fatalf("unexpected listing %+v", rates)
	}

	if _, err := s.SetRate(ctx, "rickshaw-xl", 4); !errors.Is(err, ErrUnknownClass) {
		t.Fatalf("expected ErrUnknownClass, got %v", err)
	}
	for _, v := range []float64{0, -1, MaxRatePerKm + 1, math.NaN()} {
		if _, err := s.SetRate(ctx, "sedan", v); !errors.Is(err, ErrInvalidRate) {
			t.Fatalf("rate %v: expected ErrInvalidRate, got %v", v, err)
		}
	}
	broken := NewService(PolicyPerClass, "INR", failingRates{})
	if _, err := broken.SetRate(ctx, "sedan", 9); err == nil {
		t.Fatal("expected store error")
	}
}

func TestService_Compute_RateCurrencyMismatch(t *testing.T) {
	s := NewService(PolicyPerClass, "INR", usdRates{stubRates{"sedan": 11}})
	if _, err := s.Compute(context.Background(), 10, FareInput{VehicleClass: "sedan"}); !errors.Is(err, ErrCurrencyMismatch) {
		t.Fatalf("expected ErrCurrencyMismatch, got %v", err)
	}
}
