// README: Fleet aggregates (cabs and their drivers) and assignment results.
package fleet

import (
	"errors"
	"time"

	"cabsys/internal/types"
)

type Cab struct {
	ID           types.ID `json:"id"`
	PlateNumber  string   `json:"plateNumber"`
	VehicleClass string   `json:"vehicleClass"`
	RatePerKm    float64  `json:"ratePerKm"`
	Electric     bool     `json:"electric"`
	Seats        int      `json:"seats"`
	// Available is false while a booking holds the cab.
	Available bool `json:"available"`
	// OnHold is the admin maintenance flag; bookings never change it.
	OnHold    bool      `json:"onHold"`
	DriverID  types.ID  `json:"driverId"`
	CreatedAt time.Time `json:"createdAt"`
}

type Driver struct {
	ID            types.ID  `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	LicenseNumber string    `json:"licenseNumber"`
	Phone         string    `json:"phone"`
	Rating        float64   `json:"rating"`
	Available     bool      `json:"available"`
	DeviceToken   string    `json:"-"`
	PasswordHash  string    `json:"-"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Assignable reports whether a new booking may take the cab.
func (c Cab) Assignable() bool {
	return c.Available && !c.OnHold
}

// Assignment is the cab reserved for a booking together with its driver.
type Assignment struct {
	Cab    Cab
	Driver Driver
}

// CabFilter narrows ListCabs. Zero value lists every cab.
type CabFilter struct {
	// AvailableOnly keeps cabs that are neither booked nor on hold.
	AvailableOnly bool
	ElectricOnly  bool
	VehicleClass  string
}

var (
	ErrNotFound       = errors.New("cab not found")
	ErrDriverNotFound = errors.New("driver not found")
	ErrNoCabAvailable = errors.New("no cab available")
	ErrBadRequest     = errors.New("bad request")
	ErrDriverHasCab   = errors.New("driver already has a cab")
	ErrPlateTaken     = errors.New("plate number already registered")
	ErrEmailTaken     = errors.New("driver email already registered")
)
