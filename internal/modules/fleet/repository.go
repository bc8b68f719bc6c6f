// README: Fleet persistence contract shared by the Postgres and in-memory stores.
package fleet

import (
	"context"

	"cabsys/internal/types"
)

// Repository lists cabs ordered by ascending id.
type Repository interface {
	ListCabs(ctx context.Context, f CabFilter) ([]Cab, error)
	GetCab(ctx context.Context, id types.ID) (*Cab, error)
	GetCabByDriver(ctx context.Context, driverID types.ID) (*Cab, error)
	CreateCab(ctx context.Context, c *Cab) error
	DeleteCab(ctx context.Context, id types.ID) error
	// SwapCabAvailability flips availability from -> to only if the cab is
	// currently in state from; the driver's flag follows the cab. Reserving
	// (true -> false) also requires the cab not to be on hold.
	SwapCabAvailability(ctx context.Context, id types.ID, from, to bool) (bool, error)
	// SetCabHold sets the admin hold without touching the booking reservation.
	SetCabHold(ctx context.Context, id types.ID, hold bool) error

	ListDrivers(ctx context.Context) ([]Driver, error)
	GetDriver(ctx context.Context, id types.ID) (*Driver, error)
	GetDriverByEmail(ctx context.Context, email string) (*Driver, error)
	CreateDriver(ctx context.Context, d *Driver) error
	DeleteDriver(ctx context.Context, id types.ID) error
	UpdateDeviceToken(ctx context.Context, driverID types.ID, token string) error
}
