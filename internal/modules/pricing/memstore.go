// README: In-memory rate table used when no database is configured.
package pricing

import (
	"context"
	"sort"
	"sync"
)

type MemStore struct {
	mu    sync.RWMutex
	rates map[string]Rate
}

// NewMemStore returns a table seeded with DefaultRates in currency.
func NewMemStore(currency string) *MemStore {
	m := &MemStore{rates: make(map[string]Rate, len(DefaultRates))}
	for class, perKm := range DefaultRates {
		m.rates[class] = Rate{VehicleClass: class, PerKm: perKm, Currency: currency}
	}
	return m
}

func (m *MemStore) GetRate(_ context.Context, vehicleClass string) (Rate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rates[vehicleClass]
	if !ok {
		return Rate{}, ErrRateNotFound
	}
	return r, nil
}

func (m *MemStore) ListRates(_ context.Context) ([]Rate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Rate, 0, len(m.rates))
	for _, r := range m.rates {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VehicleClass < out[j].VehicleClass })
	return out, nil
}

func (m *MemStore) UpsertRate(_ context.Context, r Rate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rates[r.VehicleClass] = r
	return nil
}
