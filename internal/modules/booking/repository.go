// README: Booking persistence contract and the in-memory implementation.
package booking

import (
	"context"
	"sort"
	"sync"
	"time"

	"cabsys/internal/types"
)

// StatusUpdate is a compare-and-swap on (status, status_version).
type StatusUpdate struct {
	ID      types.ID
	From    Status
	To      Status
	Version int
	At      time.Time
	Reason  *string
}

// Repository lists bookings newest first.
type Repository interface {
	Create(ctx context.Context, b *Booking) error
	Get(ctx context.Context, id types.ID) (*Booking, error)
	ListByUser(ctx context.Context, userID types.ID) ([]Booking, error)
	ListByDriver(ctx context.Context, driverID types.ID, activeOnly bool) ([]Booking, error)
	ListAll(ctx context.Context) ([]Booking, error)
	// ListStale returns bookings in status created before the cutoff.
	ListStale(ctx context.Context, status Status, before time.Time) ([]Booking, error)
	UpdateStatus(ctx context.Context, u StatusUpdate) (bool, error)
	UpdatePaymentStatus(ctx context.Context, id types.ID, status PaymentStatus) error
	AppendEvent(ctx context.Context, e *Event) error
	ListEvents(ctx context.Context, bookingID types.ID) ([]Event, error)
}

type MemStore struct {
	mu       sync.Mutex
	seq      int64
	bookings map[types.ID]*memRow
	events   map[types.ID][]Event
	eventSeq int64
}

type memRow struct {
	b   Booking
	seq int64
}

func NewMemStore() *MemStore {
	return &MemStore{bookings: make(map[types.ID]*memRow), events: make(map[types.ID][]Event)}
}

func (m *MemStore) Create(_ context.Context, b *Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	m.bookings[b.ID] = &memRow{b: *b, seq: m.seq}
	return nil
}

func (m *MemStore) Get(_ context.Context, id types.ID) (*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	b := row.b
	return &b, nil
}

func (m *MemStore) list(keep func(*Booking) bool) []Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := make([]*memRow, 0, len(m.bookings))
	for _, r := range m.bookings {
		if keep(&r.b) {
			rows = append(rows, r)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].b.CreatedAt.Equal(rows[j].b.CreatedAt) {
			return rows[i].b.CreatedAt.After(rows[j].b.CreatedAt)
		}
		return rows[i].seq > rows[j].seq
	})
	out := make([]Booking, len(rows))
	for i, r := range rows {
		out[i] = r.b
	}
	return out
}

func (m *MemStore) ListByUser(_ context.Context, userID types.ID) ([]Booking, error) {
	return m.list(func(b *Booking) bool { return b.UserID == userID }), nil
}

func (m *MemStore) ListByDriver(_ context.Context, driverID types.ID, activeOnly bool) ([]Booking, error) {
	return m.list(func(b *Booking) bool {
		return b.Assigned.DriverID == driverID && (!activeOnly || b.Status.Active())
	}), nil
}

func (m *MemStore) ListAll(_ context.Context) ([]Booking, error) {
	return m.list(func(*Booking) bool { return true }), nil
}

func (m *MemStore) ListStale(_ context.Context, status Status, before time.Time) ([]Booking, error) {
	return m.list(func(b *Booking) bool { return b.Status == status && b.CreatedAt.Before(before) }), nil
}

func (m *MemStore) UpdateStatus(_ context.Context, u StatusUpdate) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.bookings[u.ID]
	if !ok {
		return false, ErrNotFound
	}
	b := &row.b
	if b.Status != u.From || b.StatusVersion != u.Version {
		return false, nil
	}
	b.Status = u.To
	b.StatusVersion++
	at := u.At
	switch u.To {
	case StatusConfirmed:
		b.ConfirmedAt = &at
	case StatusInProgress:
		b.StartedAt = &at
	case StatusCompleted:
		b.CompletedAt = &at
	case StatusCancelled:
		b.CancelledAt = &at
		b.CancelReason = u.Reason
	}
	return true, nil
}

func (m *MemStore) UpdatePaymentStatus(_ context.Context, id types.ID, status PaymentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.bookings[id]
	if !ok {
		return ErrNotFound
	}
	row.b.PaymentStatus = status
	return nil
}

func (m *MemStore) AppendEvent(_ context.Context, e *Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eventSeq++
	ev := *e
	ev.ID = m.eventSeq
	m.events[e.BookingID] = append(m.events[e.BookingID], ev)
	return nil
}

func (m *MemStore) ListEvents(_ context.Context, bookingID types.ID) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event(nil), m.events[bookingID]...), nil
}
