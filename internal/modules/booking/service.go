// README: Booking service runs the create workflow and the lifecycle transitions.
package booking

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"cabsys/internal/modules/fleet"
	"cabsys/internal/modules/pricing"
	"cabsys/internal/modules/routing"
	"cabsys/internal/types"
)

const (
	RoutingKeyCreated       = "booking.created"
	RoutingKeyStatusChanged = "booking.status_changed"
)

type Pricer interface {
	Compute(ctx context.Context, distanceKm float64, in pricing.FareInput) (types.Money, error)
}

type CarbonCalculator interface {
	Saved(distanceKm float64, ecoRide, cabIsElectric bool) float64
}

type Fleet interface {
	Assign(ctx context.Context, req fleet.AssignRequest) (*fleet.Assignment, error)
	Release(ctx context.Context, cabID types.ID) error
}

type Router interface {
	Route(ctx context.Context, from, to types.Point) (*routing.Route, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, v any) error
}

// DriverNotifier tells the assigned driver about a new booking.
type DriverNotifier interface {
	NotifyAssigned(ctx context.Context, b *Booking) error
}

type Options struct {
	InitialStatus Status
	PendingTTL    time.Duration
	ExpiryTick    time.Duration
}

// Deps groups the collaborators of the booking service. Router, Events and
// Notifier are optional.
type Deps struct {
	Repo     Repository
	Pricing  Pricer
	Carbon   CarbonCalculator
	Fleet    Fleet
	Router   Router
	Events   EventPublisher
	Notifier DriverNotifier
	Log      logrus.FieldLogger
	Options  Options
}

type Service struct {
	repo     Repository
	pricing  Pricer
	carbon   CarbonCalculator
	fleet    Fleet
	router   Router
	events   EventPublisher
	notifier DriverNotifier
	log      logrus.FieldLogger
	opts     Options
	validate *validator.Validate
	now      func() time.Time
}

func NewService(d Deps) *Service {
	opts := d.Options
	if opts.InitialStatus == "" {
		opts.InitialStatus = StatusConfirmed
	}
	if opts.PendingTTL <= 0 {
		opts.PendingTTL = 15 * time.Minute
	}
	if opts.ExpiryTick <= 0 {
		opts.ExpiryTick = 30 * time.Second
	}
	log := d.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{
		repo:     d.Repo,
		pricing:  d.Pricing,
		carbon:   d.Carbon,
		fleet:    d.Fleet,
		router:   d.Router,
		events:   d.Events,
		notifier: d.Notifier,
		log:      log,
		opts:     opts,
		validate: validator.New(),
		now:      time.Now,
	}
}

type CreateCommand struct {
	UserID        types.ID `validate:"required"`
	PickupAddress string   `validate:"required,max=255"`
	DropAddress   string   `validate:"required,max=255"`
	Pickup        *types.Point
	Drop          *types.Point
	// DistanceKm is used only when either point is missing.
	DistanceKm   float64
	VehicleClass string
	EcoRide      bool
	BookingTime  time.Time
	Payment      PaymentInput
}

type QuoteCommand struct {
	Pickup       *types.Point
	Drop         *types.Point
	DistanceKm   float64
	VehicleClass string
	EcoRide      bool
}

// Quote is a fare preview. CarbonSavedKg assumes an electric cab is assigned.
type Quote struct {
	DistanceKm    float64       `json:"distanceKm"`
	DurationSec   float64       `json:"durationSec,omitempty"`
	Fare          types.Money   `json:"fare"`
	CarbonSavedKg float64       `json:"carbonSavedKg"`
	VehicleClass  string        `json:"vehicleClass"`
	EcoRide       bool          `json:"ecoRide"`
	Geometry      []types.Point `json:"geometry,omitempty"`
}

type TransitionCommand struct {
	BookingID types.ID
	ActorType string
	ActorID   *types.ID
}

type CancelCommand struct {
	BookingID types.ID
	ActorType string
	ActorID   *types.ID
	Reason    string
}

// StatusChanged is the payload published on every transition.
type StatusChanged struct {
	BookingID types.ID  `json:"bookingId"`
	From      Status    `json:"from"`
	To        Status    `json:"to"`
	ActorType string    `json:"actorType"`
	At        time.Time `json:"at"`
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Booking, error) {
	cmd.PickupAddress = strings.TrimSpace(cmd.PickupAddress)
	cmd.DropAddress = strings.TrimSpace(cmd.DropAddress)
	if err := s.validate.Struct(cmd); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	payment, err := BuildPayment(s.validate, cmd.Payment)
	if err != nil {
		return nil, err
	}
	class, err := requestedClass(cmd.VehicleClass)
	if err != nil {
		return nil, err
	}
	route, err := s.resolveDistance(ctx, cmd.Pickup, cmd.Drop, cmd.DistanceKm)
	if err != nil {
		return nil, err
	}

	asg, err := s.fleet.Assign(ctx, fleet.AssignRequest{Eco: cmd.EcoRide, Class: class})
	if err != nil {
		return nil, err
	}
	// The rider pays for the cab that was actually assigned.
	fare, err := s.pricing.Compute(ctx, route.DistanceKm, pricing.FareInput{
		VehicleClass: asg.Cab.VehicleClass,
		EcoRide:      cmd.EcoRide,
		RatePerKm:    asg.Cab.RatePerKm,
	})
	if err != nil {
		s.releaseAfterFailure(ctx, asg.Cab.ID)
		return nil, fmt.Errorf("price booking: %w", err)
	}

	now := s.now()
	bookingTime := cmd.BookingTime
	if bookingTime.IsZero() {
		bookingTime = now
	}
	b := &Booking{
		ID:            types.NewID(),
		UserID:        cmd.UserID,
		Pickup:        Location{Address: cmd.PickupAddress, Point: cmd.Pickup},
		Drop:          Location{Address: cmd.DropAddress, Point: cmd.Drop},
		DistanceKm:    route.DistanceKm,
		Fare:          fare,
		Status:        s.opts.InitialStatus,
		StatusVersion: 0,
		EcoRide:       cmd.EcoRide,
		CarbonSavedKg: s.carbon.Saved(route.DistanceKm, cmd.EcoRide, asg.Cab.Electric),
		VehicleClass:  class,
		Assigned: Assigned{
			CabID:        asg.Cab.ID,
			PlateNumber:  asg.Cab.PlateNumber,
			VehicleClass: asg.Cab.VehicleClass,
			Electric:     asg.Cab.Electric,
			DriverID:     asg.Driver.ID,
			DriverName:   asg.Driver.Name,
			DriverPhone:  asg.Driver.Phone,
		},
		Payment:       payment,
		PaymentStatus: PaymentPending,
		BookingTime:   bookingTime,
		CreatedAt:     now,
	}
	if b.Status == StatusConfirmed {
		b.ConfirmedAt = &now
	}
	if err := s.repo.Create(ctx, b); err != nil {
		s.releaseAfterFailure(ctx, asg.Cab.ID)
		return nil, fmt.Errorf("persist booking: %w", err)
	}

	userID := cmd.UserID
	if err := s.repo.AppendEvent(ctx, &Event{
		BookingID:  b.ID,
		FromStatus: StatusNone,
		ToStatus:   b.Status,
		ActorType:  ActorUser,
		ActorID:    &userID,
		CreatedAt:  now,
	}); err != nil {
		s.log.WithError(err).WithField("booking_id", b.ID).Warn("append booking event")
	}
	s.publish(ctx, RoutingKeyCreated, b)
	if s.notifier != nil {
		if err := s.notifier.NotifyAssigned(ctx, b); err != nil {
			s.log.WithError(err).WithField("driver_id", b.Assigned.DriverID).Warn("notify driver")
		}
	}
	s.log.WithFields(logrus.Fields{
		"booking_id":      b.ID,
		"user_id":         b.UserID,
		"cab_id":          b.Assigned.CabID,
		"driver_id":       b.Assigned.DriverID,
		"distance_km":     b.DistanceKm,
		"fare":            b.Fare.String(),
		"eco_ride":        b.EcoRide,
		"carbon_saved_kg": b.CarbonSavedKg,
		"payment_method":  b.Payment.Method,
		"status":          b.Status,
	}).Info("booking created")
	return b, nil
}

func (s *Service) releaseAfterFailure(ctx context.Context, cabID types.ID) {
	if err := s.fleet.Release(ctx, cabID); err != nil {
		s.log.WithError(err).WithField("cab_id", cabID).Error("release cab after failed booking")
	}
}

// Quote prices the requested class; the booking itself is priced on the cab
// that gets assigned.
func (s *Service) Quote(ctx context.Context, cmd QuoteCommand) (*Quote, error) {
	class, err := requestedClass(cmd.VehicleClass)
	if err != nil {
		return nil, err
	}
	route, err := s.resolveDistance(ctx, cmd.Pickup, cmd.Drop, cmd.DistanceKm)
	if err != nil {
		return nil, err
	}
	fare, err := s.pricing.Compute(ctx, route.DistanceKm, pricing.FareInput{VehicleClass: class, EcoRide: cmd.EcoRide})
	if err != nil {
		return nil, fmt.Errorf("price quote: %w", err)
	}
	return &Quote{
		DistanceKm:    route.DistanceKm,
		DurationSec:   route.DurationSec,
		Fare:          fare,
		CarbonSavedKg: s.carbon.Saved(route.DistanceKm, cmd.EcoRide, cmd.EcoRide),
		VehicleClass:  class,
		EcoRide:       cmd.EcoRide,
		Geometry:      route.Geometry,
	}, nil
}

// requestedClass normalizes the class a rider asked for, defaulting to sedan.
func requestedClass(v string) (string, error) {
	class := pricing.NormalizeClass(v)
	if class == "" {
		return pricing.ClassSedan, nil
	}
	if !pricing.KnownClass(class) {
		return "", fmt.Errorf("%w: %w: %q", ErrValidation, pricing.ErrUnknownClass, class)
	}
	return class, nil
}

// resolveDistance routes between the two points when both are present and
// otherwise falls back to the client-supplied distance.
func (s *Service) resolveDistance(ctx context.Context, from, to *types.Point, manualKm float64) (*routing.Route, error) {
	if from != nil && to != nil {
		if !from.Valid() || !to.Valid() {
			return nil, fmt.Errorf("%w: coordinates out of range", ErrValidation)
		}
		if s.router == nil {
			return nil, ErrServiceUnavailable
		}
		r, err := s.router.Route(ctx, *from, *to)
		if err != nil {
			if errors.Is(err, routing.ErrInvalidPoint) {
				return nil, fmt.Errorf("%w: %v", ErrValidation, err)
			}
			return nil, fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
		}
		if r.DistanceKm <= 0 {
			return nil, fmt.Errorf("%w: pickup and drop are the same place", ErrValidation)
		}
		if r.DistanceKm > pricing.MaxDistanceKm {
			return nil, fmt.Errorf("%w: %w: route is %.2f km", ErrValidation, pricing.ErrInvalidDistance, r.DistanceKm)
		}
		return r, nil
	}
	if math.IsNaN(manualKm) || math.IsInf(manualKm, 0) || manualKm <= 0 || manualKm > pricing.MaxDistanceKm {
		return nil, fmt.Errorf("%w: %w", ErrValidation, pricing.ErrInvalidDistance)
	}
	return &routing.Route{DistanceKm: types.Round2(manualKm)}, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Booking, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) ListByUser(ctx context.Context, userID types.ID) ([]Booking, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *Service) ListByDriver(ctx context.Context, driverID types.ID, activeOnly bool) ([]Booking, error) {
	return s.repo.ListByDriver(ctx, driverID, activeOnly)
}

func (s *Service) ListAll(ctx context.Context) ([]Booking, error) {
	return s.repo.ListAll(ctx)
}

func (s *Service) Events(ctx context.Context, id types.ID) ([]Event, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.ListEvents(ctx, id)
}

func (s *Service) Confirm(ctx context.Context, cmd TransitionCommand) (*Booking, error) {
	return s.transition(ctx, cmd.BookingID, StatusConfirmed, cmd.ActorType, cmd.ActorID, nil)
}

func (s *Service) Start(ctx context.Context, cmd TransitionCommand) (*Booking, error) {
	return s.transition(ctx, cmd.BookingID, StatusInProgress, cmd.ActorType, cmd.ActorID, nil)
}

// Complete finishes a ride. A driver may only complete bookings assigned to them.
func (s *Service) Complete(ctx context.Context, cmd TransitionCommand) (*Booking, error) {
	if cmd.ActorType == ActorDriver {
		b, err := s.repo.Get(ctx, cmd.BookingID)
		if err != nil {
			return nil, err
		}
		if cmd.ActorID == nil || b.Assigned.DriverID != *cmd.ActorID {
			return nil, ErrForbidden
		}
	}
	return s.transition(ctx, cmd.BookingID, StatusCompleted, cmd.ActorType, cmd.ActorID, nil)
}

func (s *Service) Cancel(ctx context.Context, cmd CancelCommand) (*Booking, error) {
	var reason *string
	if r := strings.TrimSpace(cmd.Reason); r != "" {
		reason = &r
	}
	return s.transition(ctx, cmd.BookingID, StatusCancelled, cmd.ActorType, cmd.ActorID, reason)
}

// UpdateStatus is the admin entry point; it dispatches to the matching transition.
func (s *Service) UpdateStatus(ctx context.Context, id types.ID, to Status, reason string, adminID *types.ID) (*Booking, error) {
	cmd := TransitionCommand{BookingID: id, ActorType: ActorAdmin, ActorID: adminID}
	switch to {
	case StatusConfirmed:
		return s.Confirm(ctx, cmd)
	case StatusInProgress:
		return s.Start(ctx, cmd)
	case StatusCompleted:
		return s.Complete(ctx, cmd)
	case StatusCancelled:
		return s.Cancel(ctx, CancelCommand{BookingID: id, ActorType: ActorAdmin, ActorID: adminID, Reason: reason})
	}
	return nil, fmt.Errorf("%w: cannot move a booking to %s", ErrInvalidTransition, to)
}

// UpdatePaymentStatus records the payment outcome. A successful payment
// confirms a PENDING booking.
func (s *Service) UpdatePaymentStatus(ctx context.Context, id types.ID, status PaymentStatus, adminID *types.ID) (*Booking, error) {
	if _, err := ParsePaymentStatus(string(status)); err != nil {
		return nil, err
	}
	if err := s.repo.UpdatePaymentStatus(ctx, id, status); err != nil {
		return nil, err
	}
	b, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if status == PaymentSuccess && b.Status == StatusPending {
		confirmed, err := s.Confirm(ctx, TransitionCommand{BookingID: id, ActorType: ActorAdmin, ActorID: adminID})
		if err != nil && !errors.Is(err, ErrInvalidTransition) {
			return nil, err
		}
		if confirmed != nil {
			return confirmed, nil
		}
		return s.repo.Get(ctx, id)
	}
	return b, nil
}

func (s *Service) transition(ctx context.Context, id types.ID, to Status, actorType string, actorID *types.ID, reason *string) (*Booking, error) {
	b, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(b.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, b.Status, to)
	}
	now := s.now()
	ok, err := s.repo.UpdateStatus(ctx, StatusUpdate{
		ID:      b.ID,
		From:    b.Status,
		To:      to,
		Version: b.StatusVersion,
		At:      now,
		Reason:  reason,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}
	from := b.Status
	if err := s.repo.AppendEvent(ctx, &Event{
		BookingID:  b.ID,
		FromStatus: from,
		ToStatus:   to,
		ActorType:  actorType,
		ActorID:    actorID,
		CreatedAt:  now,
	}); err != nil {
		s.log.WithError(err).WithField("booking_id", b.ID).Warn("append booking event")
	}
	if to.Terminal() {
		if err := s.fleet.Release(ctx, b.Assigned.CabID); err != nil {
			s.log.WithError(err).WithField("cab_id", b.Assigned.CabID).Error("release cab")
		}
	}
	s.publish(ctx, RoutingKeyStatusChanged, StatusChanged{BookingID: b.ID, From: from, To: to, ActorType: actorType, At: now})
	s.log.WithFields(logrus.Fields{
		"booking_id": b.ID,
		"from":       from,
		"to":         to,
		"actor":      actorType,
	}).Info("booking status changed")
	return s.repo.Get(ctx, id)
}

// ExpirePending cancels PENDING bookings older than the configured TTL and
// returns how many were cancelled. Bookings that moved on concurrently are skipped.
func (s *Service) ExpirePending(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.opts.PendingTTL)
	stale, err := s.repo.ListStale(ctx, StatusPending, cutoff)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, b := range stale {
		_, err := s.Cancel(ctx, CancelCommand{BookingID: b.ID, ActorType: ActorSystem, Reason: "payment not confirmed in time"})
		if errors.Is(err, ErrInvalidTransition) {
			continue
		}
		if err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// RunPendingExpiry runs ExpirePending on every tick until ctx is cancelled.
func (s *Service) RunPendingExpiry(ctx context.Context) {
	ticker := time.NewTicker(s.opts.ExpiryTick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.ExpirePending(ctx)
			if err != nil {
				s.log.WithError(err).Warn("expire pending bookings")
				continue
			}
			if n > 0 {
				s.log.WithField("count", n).Info("expired pending bookings")
			}
		}
	}
}

func (s *Service) publish(ctx context.Context, key string, v any) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, key, v); err != nil {
		s.log.WithError(err).WithField("routing_key", key).Warn("publish booking event")
	}
}
