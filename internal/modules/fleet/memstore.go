// README: In-memory fleet store used for local runs and tests.
package fleet

import (
	"context"
	"sort"
	"strings"
	"sync"

	"cabsys/internal/types"
)

type MemStore struct {
	mu      sync.Mutex
	cabs    map[types.ID]*Cab
	drivers map[types.ID]*Driver
}

func NewMemStore() *MemStore {
	return &MemStore{
		cabs:    make(map[types.ID]*Cab),
		drivers: make(map[types.ID]*Driver),
	}
}

func (s *MemStore) ListCabs(_ context.Context, f CabFilter) ([]Cab, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Cab, 0, len(s.cabs))
	for _, c := range s.cabs {
		if f.AvailableOnly && !c.Assignable() {
			continue
		}
		if f.ElectricOnly && !c.Electric {
			continue
		}
		if f.VehicleClass != "" && !strings.EqualFold(c.VehicleClass, f.VehicleClass) {
			continue
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemStore) GetCab(_ context.Context, id types.ID) (*Cab, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cabs[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *MemStore) GetCabByDriver(_ context.Context, driverID types.ID) (*Cab, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.cabs {
		if c.DriverID == driverID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemStore) CreateCab(_ context.Context, c *Cab) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.drivers[c.DriverID]; !ok {
		return ErrDriverNotFound
	}
	for _, existing := range s.cabs {
		if strings.EqualFold(existing.PlateNumber, c.PlateNumber) {
			return ErrPlateTaken
		}
	}
	for _, existing := range s.cabs {
		if existing.DriverID == c.DriverID {
			return ErrDriverHasCab
		}
	}
	cp := *c
	s.cabs[c.ID] = &cp
	return nil
}

func (s *MemStore) DeleteCab(_ context.Context, id types.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cabs[id]; !ok {
		return ErrNotFound
	}
	delete(s.cabs, id)
	return nil
}

func (s *MemStore) SwapCabAvailability(_ context.Context, id types.ID, from, to bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cabs[id]
	if !ok {
		return false, ErrNotFound
	}
	if c.Available != from || (from && !to && c.OnHold) {
		return false, nil
	}
	c.Available = to
	if d, ok := s.drivers[c.DriverID]; ok {
		d.Available = to
	}
	return true, nil
}

func (s *MemStore) SetCabHold(_ context.Context, id types.ID, hold bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cabs[id]
	if !ok {
		return ErrNotFound
	}
	c.OnHold = hold
	return nil
}

func (s *MemStore) ListDrivers(_ context.Context) ([]Driver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Driver, 0, len(s.drivers))
	for _, d := range s.drivers {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemStore) GetDriver(_ context.Context, id types.ID) (*Driver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drivers[id]
	if !ok {
		return nil, ErrDriverNotFound
	}
	cp := *d
	return &cp, nil
}

func (s *MemStore) GetDriverByEmail(_ context.Context, email string) (*Driver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.drivers {
		if strings.EqualFold(d.Email, email) {
			cp := *d
			return &cp, nil
		}
	}
	return nil, ErrDriverNotFound
}

func (s *MemStore) CreateDriver(_ context.Context, d *Driver) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.drivers {
		if d.Email != "" && strings.EqualFold(existing.Email, d.Email) {
			return ErrEmailTaken
		}
	}
	cp := *d
	s.drivers[d.ID] = &cp
	return nil
}

func (s *MemStore) DeleteDriver(_ context.Context, id types.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.drivers[id]; !ok {
		return ErrDriverNotFound
	}
	for _, c := range s.cabs {
		if c.DriverID == id {
			return ErrDriverHasCab
		}
	}
	delete(s.drivers, id)
	return nil
}

func (s *MemStore) UpdateDeviceToken(_ context.Context, driverID types.ID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drivers[driverID]
	if !ok {
		return ErrDriverNotFound
	}
	d.DeviceToken = token
	return nil
}
