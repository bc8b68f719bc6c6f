// README: Pricing store backed by PostgreSQL (per-class rate overrides).
package pricing

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) GetRate(ctx context.Context, vehicleClass string) (Rate, error) {
	r := Rate{VehicleClass: vehicleClass}
	err := s.db.QueryRow(ctx, `
		SELECT per_km, currency
		FROM fare_rates
		WHERE vehicle_class = $1`, vehicleClass,
	).Scan(&r.PerKm, &r.Currency)
	if errors.Is(err, pgx.ErrNoRows) {
		return Rate{}, ErrRateNotFound
	}
	if err != nil {
		return Rate{}, err
	}
	return r, nil
}

func (s *Store) ListRates(ctx context.Context) ([]Rate, error) {
	rows, err := s.db.Query(ctx, `
		SELECT vehicle_class, per_km, currency
		FROM fare_rates
		ORDER BY vehicle_class`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Rate
	for rows.Next() {
		var r Rate
		if err := rows.Scan(&r.VehicleClass, &r.PerKm, &r.Currency); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) UpsertRate(ctx context.Context, r Rate) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO fare_rates (vehicle_class, per_km, currency)
		VALUES ($1, $2, $3)
		ON CONFLICT (vehicle_class) DO UPDATE SET per_km = EXCLUDED.per_km, currency = EXCLUDED.currency`,
		r.VehicleClass, r.PerKm, r.Currency,
	)
	return err
}
