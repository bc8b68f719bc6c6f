// README: Booking aggregate, lifecycle statuses and the allowed transition table.
package booking

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"cabsys/internal/types"
)

type Status string

const (
	StatusNone       Status = "NONE"
	StatusPending    Status = "PENDING"
	StatusConfirmed  Status = "CONFIRMED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

const (
	ActorUser   = "user"
	ActorDriver = "driver"
	ActorAdmin  = "admin"
	ActorSystem = "system"
)

// Location is a free-text address with optional coordinates.
type Location struct {
	Address string       `json:"address"`
	Point   *types.Point `json:"point,omitempty"`
}

// Assigned is the cab and driver fixed at creation time.
type Assigned struct {
	CabID        types.ID `json:"cabId"`
	PlateNumber  string   `json:"plateNumber"`
	VehicleClass string   `json:"vehicleClass"`
	Electric     bool     `json:"electric"`
	DriverID     types.ID `json:"driverId"`
	DriverName   string   `json:"driverName"`
	DriverPhone  string   `json:"driverPhone"`
}

type Booking struct {
	ID            types.ID       `json:"id"`
	UserID        types.ID       `json:"userId"`
	Pickup        Location       `json:"pickup"`
	Drop          Location       `json:"drop"`
	DistanceKm    float64        `json:"distanceKm"`
	Fare          types.Money    `json:"fare"`
	Status        Status         `json:"status"`
	StatusVersion int            `json:"statusVersion"`
	EcoRide       bool           `json:"ecoRide"`
	CarbonSavedKg float64        `json:"carbonSavedKg"`
	VehicleClass  string         `json:"vehicleClass"`
	Assigned      Assigned       `json:"assigned"`
	Payment       PaymentDetails `json:"payment"`
	PaymentStatus PaymentStatus  `json:"paymentStatus"`
	BookingTime   time.Time      `json:"bookingTime"`
	CreatedAt     time.Time      `json:"createdAt"`
	ConfirmedAt   *time.Time     `json:"confirmedAt,omitempty"`
	StartedAt     *time.Time     `json:"startedAt,omitempty"`
	CompletedAt   *time.Time     `json:"completedAt,omitempty"`
	CancelledAt   *time.Time     `json:"cancelledAt,omitempty"`
	CancelReason  *string        `json:"cancelReason,omitempty"`
}

type Event struct {
	ID         int64     `json:"id"`
	BookingID  types.ID  `json:"bookingId"`
	FromStatus Status    `json:"fromStatus"`
	ToStatus   Status    `json:"toStatus"`
	ActorType  string    `json:"actorType"`
	ActorID    *types.ID `json:"actorId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// AllowedTransitions is the booking lifecycle as code. Statuses absent from
// the map are terminal.
var AllowedTransitions = map[Status][]Status{
	StatusPending:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusInProgress, StatusCompleted, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

func (s Status) Terminal() bool {
	_, ok := AllowedTransitions[s]
	return !ok
}

// Active reports whether the booking still occupies its cab.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusConfirmed || s == StatusInProgress
}

func ParseStatus(v string) (Status, error) {
	switch s := Status(strings.ToUpper(strings.TrimSpace(v))); s {
	case StatusPending, StatusConfirmed, StatusInProgress, StatusCompleted, StatusCancelled:
		return s, nil
	}
	return "", fmt.Errorf("%w: unknown status %q", ErrValidation, v)
}

var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("booking not found")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrForbidden          = errors.New("not allowed for this booking")
	ErrServiceUnavailable = errors.New("route service unavailable")
	// ErrConflict is a lost compare-and-swap; it is an ErrInvalidTransition
	// because the first transition won.
	ErrConflict = fmt.Errorf("%w: booking changed concurrently", ErrInvalidTransition)
)
