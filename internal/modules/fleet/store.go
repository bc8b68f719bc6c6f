// README: Fleet store backed by PostgreSQL.
package fleet

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"cabsys/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const cabColumns = `id, plate_number, vehicle_class, rate_per_km, electric, seats, available, on_hold, driver_id, created_at`

const driverColumns = `id, name, email, license_number, phone, rating, available, device_token, password_hash, created_at`

func (s *Store) ListCabs(ctx context.Context, f CabFilter) ([]Cab, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+cabColumns+`
		FROM cabs
		WHERE ($1 = FALSE OR (available AND NOT on_hold))
		  AND ($2 = FALSE OR electric)
		  AND ($3 = '' OR lower(vehicle_class) = lower($3))
		ORDER BY id`,
		f.AvailableOnly, f.ElectricOnly, f.VehicleClass,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Cab
	for rows.Next() {
		c, err := scanCab(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (s *Store) GetCab(ctx context.Context, id types.ID) (*Cab, error) {
	row := s.db.QueryRow(ctx, `SELECT `+cabColumns+` FROM cabs WHERE id = $1`, string(id))
	c, err := scanCab(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return c, err
}

func (s *Store) GetCabByDriver(ctx context.Context, driverID types.ID) (*Cab, error) {
	row := s.db.QueryRow(ctx, `SELECT `+cabColumns+` FROM cabs WHERE driver_id = $1`, string(driverID))
	c, err := scanCab(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return c, err
}

func (s *Store) CreateCab(ctx context.Context, c *Cab) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO cabs (`+cabColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		string(c.ID), c.PlateNumber, c.VehicleClass, c.RatePerKm, c.Electric,
		c.Seats, c.Available, c.OnHold, string(c.DriverID), c.CreatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "23503":
			return ErrDriverNotFound
		case pgErr.Code == "23505" && strings.Contains(pgErr.ConstraintName, "driver"):
			return ErrDriverHasCab
		case pgErr.Code == "23505":
			return ErrPlateTaken
		}
	}
	return err
}

func (s *Store) DeleteCab(ctx context.Context, id types.ID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM cabs WHERE id = $1`, string(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) SwapCabAvailability(ctx context.Context, id types.ID, from, to bool) (bool, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var driverID string
	err = tx.QueryRow(ctx, `
		UPDATE cabs SET available = $1
		WHERE id = $2 AND available = $3 AND ($1 OR NOT on_hold)
		RETURNING driver_id`,
		to, string(id), from,
	).Scan(&driverID)
	if errors.Is(err, pgx.ErrNoRows) {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM cabs WHERE id = $1)`, string(id)).Scan(&exists); err != nil {
			return false, err
		}
		if !exists {
			return false, ErrNotFound
		}
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if _, err := tx.Exec(ctx, `UPDATE drivers SET available = $1 WHERE id = $2`, to, driverID); err != nil {
		return false, err
	}
	return true, tx.Commit(ctx)
}

func (s *Store) SetCabHold(ctx context.Context, id types.ID, hold bool) error {
	tag, err := s.db.Exec(ctx, `UPDATE cabs SET on_hold = $1 WHERE id = $2`, hold, string(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ListDrivers(ctx context.Context) ([]Driver, error) {
	rows, err := s.db.Query(ctx, `SELECT `+driverColumns+` FROM drivers ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Driver
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func (s *Store) GetDriver(ctx context.Context, id types.ID) (*Driver, error) {
	d, err := scanDriver(s.db.QueryRow(ctx, `SELECT `+driverColumns+` FROM drivers WHERE id = $1`, string(id)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrDriverNotFound
	}
	return d, err
}

func (s *Store) GetDriverByEmail(ctx context.Context, email string) (*Driver, error) {
	d, err := scanDriver(s.db.QueryRow(ctx, `SELECT `+driverColumns+` FROM drivers WHERE lower(email) = lower($1)`, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrDriverNotFound
	}
	return d, err
}

func (s *Store) CreateDriver(ctx context.Context, d *Driver) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO drivers (`+driverColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		string(d.ID), d.Name, d.Email, d.LicenseNumber, d.Phone, d.Rating,
		d.Available, d.DeviceToken, d.PasswordHash, d.CreatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrEmailTaken
	}
	return err
}

func (s *Store) DeleteDriver(ctx context.Context, id types.ID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM drivers WHERE id = $1`, string(id))
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return ErrDriverHasCab
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDriverNotFound
	}
	return nil
}

func (s *Store) UpdateDeviceToken(ctx context.Context, driverID types.ID, token string) error {
	tag, err := s.db.Exec(ctx, `UPDATE drivers SET device_token = $1 WHERE id = $2`, token, string(driverID))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDriverNotFound
	}
	return nil
}

func scanCab(row pgx.Row) (*Cab, error) {
	var c Cab
	var id, driverID string
	err := row.Scan(&id, &c.PlateNumber, &c.VehicleClass, &c.RatePerKm, &c.Electric,
		&c.Seats, &c.Available, &c.OnHold, &driverID, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	c.ID = types.ID(id)
	c.DriverID = types.ID(driverID)
	return &c, nil
}

func scanDriver(row pgx.Row) (*Driver, error) {
	var d Driver
	var id string
	err := row.Scan(&id, &d.Name, &d.Email, &d.LicenseNumber, &d.Phone, &d.Rating,
		&d.Available, &d.DeviceToken, &d.PasswordHash, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	d.ID = types.ID(id)
	return &d, nil
}
