// README: Booking store backed by PostgreSQL.
package booking

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cabsys/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const bookingColumns = `
	id, user_id, pickup_location, pickup_lat, pickup_lng, drop_location, drop_lat, drop_lng,
	distance_km, fare_amount, fare_currency, status, status_version, eco_ride, carbon_saved_kg,
	vehicle_class, cab_id, cab_plate, cab_class, cab_electric, driver_id, driver_name, driver_phone,
	payment_method, payment_status, payment_details, booking_time, created_at,
	confirmed_at, started_at, completed_at, cancelled_at, cancel_reason`

func (s *Store) Create(ctx context.Context, b *Booking) error {
	details, err := json.Marshal(b.Payment)
	if err != nil {
		return err
	}
	pLat, pLng := pointArgs(b.Pickup.Point)
	dLat, dLng := pointArgs(b.Drop.Point)
	_, err = s.db.Exec(ctx, `
		INSERT INTO bookings (`+bookingColumns+`)
		VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8,
			$9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23,
			$24, $25, $26, $27, $28,
			$29, $30, $31, $32, $33
		)`,
		string(b.ID), string(b.UserID), b.Pickup.Address, pLat, pLng, b.Drop.Address, dLat, dLng,
		b.DistanceKm, b.Fare.Amount, b.Fare.Currency, string(b.Status), b.StatusVersion, b.EcoRide, b.CarbonSavedKg,
		b.VehicleClass, string(b.Assigned.CabID), b.Assigned.PlateNumber, b.Assigned.VehicleClass, b.Assigned.Electric,
		string(b.Assigned.DriverID), b.Assigned.DriverName, b.Assigned.DriverPhone,
		string(b.Payment.Method), string(b.PaymentStatus), details, b.BookingTime, b.CreatedAt,
		b.ConfirmedAt, b.StartedAt, b.CompletedAt, b.CancelledAt, b.CancelReason,
	)
	return err
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Booking, error) {
	b, err := scanBooking(s.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, string(id)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return b, err
}

func (s *Store) ListByUser(ctx context.Context, userID types.ID) ([]Booking, error) {
	return s.query(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE user_id = $1 ORDER BY created_at DESC, id DESC`, string(userID))
}

func (s *Store) ListByDriver(ctx context.Context, driverID types.ID, activeOnly bool) ([]Booking, error) {
	return s.query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE driver_id = $1
		  AND ($2 = FALSE OR status IN ('PENDING','CONFIRMED','IN_PROGRESS'))
		ORDER BY created_at DESC, id DESC`, string(driverID), activeOnly)
}

func (s *Store) ListAll(ctx context.Context) ([]Booking, error) {
	return s.query(ctx, `SELECT `+bookingColumns+` FROM bookings ORDER BY created_at DESC, id DESC`)
}

func (s *Store) ListStale(ctx context.Context, status Status, before time.Time) ([]Booking, error) {
	return s.query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE status = $1 AND created_at < $2
		ORDER BY created_at DESC, id DESC`, string(status), before)
}

func (s *Store) UpdateStatus(ctx context.Context, u StatusUpdate) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE bookings
		SET status = $1,
		    status_version = status_version + 1,
		    confirmed_at = CASE WHEN $1 = 'CONFIRMED' THEN $2 ELSE confirmed_at END,
		    started_at = CASE WHEN $1 = 'IN_PROGRESS' THEN $2 ELSE started_at END,
		    completed_at = CASE WHEN $1 = 'COMPLETED' THEN $2 ELSE completed_at END,
		    cancelled_at = CASE WHEN $1 = 'CANCELLED' THEN $2 ELSE cancelled_at END,
		    cancel_reason = CASE WHEN $1 = 'CANCELLED' THEN $3 ELSE cancel_reason END
		WHERE id = $4 AND status = $5 AND status_version = $6`,
		string(u.To), u.At, u.Reason, string(u.ID), string(u.From), u.Version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) UpdatePaymentStatus(ctx context.Context, id types.ID, status PaymentStatus) error {
	tag, err := s.db.Exec(ctx, `UPDATE bookings SET payment_status = $1 WHERE id = $2`, string(status), string(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) AppendEvent(ctx context.Context, e *Event) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO booking_events (
			booking_id, from_status, to_status, actor_type, actor_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)`,
		string(e.BookingID),
		string(e.FromStatus),
		string(e.ToStatus),
		e.ActorType,
		toStringPtr(e.ActorID),
		e.CreatedAt,
	)
	return err
}

func (s *Store) ListEvents(ctx context.Context, bookingID types.ID) ([]Event, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, booking_id, from_status, to_status, actor_type, actor_id, created_at
		FROM booking_events
		WHERE booking_id = $1
		ORDER BY id`, string(bookingID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Event
	for rows.Next() {
		var e Event
		var bid, from, to string
		var actorID sql.NullString
		if err := rows.Scan(&e.ID, &bid, &from, &to, &e.ActorType, &actorID, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.BookingID = types.ID(bid)
		e.FromStatus = Status(from)
		e.ToStatus = Status(to)
		if actorID.Valid {
			a := types.ID(actorID.String)
			e.ActorID = &a
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]Booking, error) {
	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	var id, userID, status, cabID, driverID, method, payStatus string
	var pLat, pLng, dLat, dLng sql.NullFloat64
	var details []byte
	var cancelReason sql.NullString

	err := row.Scan(
		&id, &userID, &b.Pickup.Address, &pLat, &pLng, &b.Drop.Address, &dLat, &dLng,
		&b.DistanceKm, &b.Fare.Amount, &b.Fare.Currency, &status, &b.StatusVersion, &b.EcoRide, &b.CarbonSavedKg,
		&b.VehicleClass, &cabID, &b.Assigned.PlateNumber, &b.Assigned.VehicleClass, &b.Assigned.Electric,
		&driverID, &b.Assigned.DriverName, &b.Assigned.DriverPhone,
		&method, &payStatus, &details, &b.BookingTime, &b.CreatedAt,
		&b.ConfirmedAt, &b.StartedAt, &b.CompletedAt, &b.CancelledAt, &cancelReason,
	)
	if err != nil {
		return nil, err
	}
	b.ID = types.ID(id)
	b.UserID = types.ID(userID)
	b.Status = Status(status)
	b.Assigned.CabID = types.ID(cabID)
	b.Assigned.DriverID = types.ID(driverID)
	b.PaymentStatus = PaymentStatus(payStatus)
	b.Pickup.Point = toPoint(pLat, pLng)
	b.Drop.Point = toPoint(dLat, dLng)
	if len(details) > 0 {
		if err := json.Unmarshal(details, &b.Payment); err != nil {
			return nil, err
		}
	}
	b.Payment.Method = PaymentMethod(method)
	if cancelReason.Valid {
		b.CancelReason = &cancelReason.String
	}
	return &b, nil
}

func pointArgs(p *types.Point) (*float64, *float64) {
	if p == nil {
		return nil, nil
	}
	lat, lng := p.Lat, p.Lng
	return &lat, &lng
}

func toPoint(lat, lng sql.NullFloat64) *types.Point {
	if !lat.Valid || !lng.Valid {
		return nil
	}
	return &types.Point{Lat: lat.Float64, Lng: lng.Float64}
}

func toStringPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}
