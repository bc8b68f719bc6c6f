// README: Fleet service assigns cabs to bookings and manages the cab/driver roster.
package fleet

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"cabsys/internal/infra"
	"cabsys/internal/types"
)

// maxAssignAttempts bounds how many times Assign rescans after losing a reservation race.
const maxAssignAttempts = 5

type Service struct {
	repo     Repository
	log      logrus.FieldLogger
	validate *validator.Validate
}

func NewService(repo Repository, log logrus.FieldLogger) *Service {
	return &Service{repo: repo, log: log, validate: validator.New()}
}

type CreateCabCommand struct {
	PlateNumber  string  `validate:"required,max=20"`
	VehicleClass string  `validate:"required,oneof=sedan suv hatchback luxury auto bike"`
	RatePerKm    float64 `validate:"gt=0,lte=1000"`
	Electric     bool
	Seats        int      `validate:"min=1,max=12"`
	DriverID     types.ID `validate:"required"`
}

type CreateDriverCommand struct {
	Name          string  `validate:"required,max=100"`
	Email         string  `validate:"required,email"`
	Password      string  `validate:"required,min=6"`
	LicenseNumber string  `validate:"required"`
	Phone         string  `validate:"required,min=7,max=15"`
	Rating        float64 `validate:"min=0,max=5"`
}

// AssignRequest describes what a new booking would like. Class is a
// preference, not a requirement.
type AssignRequest struct {
	Eco   bool
	Class string
}

// PickCab chooses from candidates already ordered by id. Eco requests are
// narrowed to electric cabs when any is free. Within that pool the first cab
// of the requested class wins, otherwise the first cab of any class.
func PickCab(candidates []Cab, req AssignRequest) (Cab, bool) {
	if len(candidates) == 0 {
		return Cab{}, false
	}
	pool := candidates
	if req.Eco {
		var electric []Cab
		for _, c := range candidates {
			if c.Electric {
				electric = append(electric, c)
			}
		}
		if len(electric) > 0 {
			pool = electric
		}
	}
	if class := strings.ToLower(strings.TrimSpace(req.Class)); class != "" {
		for _, c := range pool {
			if strings.EqualFold(c.VehicleClass, class) {
				return c, true
			}
		}
	}
	return pool[0], true
}

// Assign reserves an available cab for a new booking. The reservation is a
// compare-and-swap on the availability flag, so concurrent bookings never
// share a cab; a lost race rescans the remaining candidates.
func (s *Service) Assign(ctx context.Context, req AssignRequest) (*Assignment, error) {
	for attempt := 0; attempt < maxAssignAttempts; attempt++ {
		candidates, err := s.repo.ListCabs(ctx, CabFilter{AvailableOnly: true})
		if err != nil {
			return nil, fmt.Errorf("list available cabs: %w", err)
		}
		cab, ok := PickCab(candidates, req)
		if !ok {
			return nil, ErrNoCabAvailable
		}
		reserved, err := s.repo.SwapCabAvailability(ctx, cab.ID, true, false)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("reserve cab %s: %w", cab.ID, err)
		}
		if !reserved {
			s.log.WithField("cab_id", cab.ID).Debug("cab taken by a concurrent booking, rescanning")
			continue
		}
		driver, err := s.repo.GetDriver(ctx, cab.DriverID)
		if err != nil {
			_ = s.Release(ctx, cab.ID)
			return nil, fmt.Errorf("load driver for cab %s: %w", cab.ID, err)
		}
		cab.Available = false
		return &Assignment{Cab: cab, Driver: *driver}, nil
	}
	return nil, ErrNoCabAvailable
}

// Release makes a reserved cab and its driver available again. An admin hold
// set during the ride stays in place.
func (s *Service) Release(ctx context.Context, cabID types.ID) error {
	_, err := s.repo.SwapCabAvailability(ctx, cabID, false, true)
	if errors.Is(err, ErrNotFound) {
		// Cab was removed by an admin while the ride was running.
		return nil
	}
	return err
}

func (s *Service) ListCabs(ctx context.Context) ([]Cab, error) {
	return s.repo.ListCabs(ctx, CabFilter{})
}

func (s *Service) AvailableCabs(ctx context.Context) ([]Cab, error) {
	return s.repo.ListCabs(ctx, CabFilter{AvailableOnly: true})
}

func (s *Service) EcoCabs(ctx context.Context) ([]Cab, error) {
	return s.repo.ListCabs(ctx, CabFilter{AvailableOnly: true, ElectricOnly: true})
}

func (s *Service) CabsByClass(ctx context.Context, class string) ([]Cab, error) {
	class = strings.ToLower(strings.TrimSpace(class))
	if class == "" {
		return nil, ErrBadRequest
	}
	return s.repo.ListCabs(ctx, CabFilter{VehicleClass: class})
}

func (s *Service) GetCab(ctx context.Context, id types.ID) (*Cab, error) {
	return s.repo.GetCab(ctx, id)
}

func (s *Service) CabForDriver(ctx context.Context, driverID types.ID) (*Cab, error) {
	return s.repo.GetCabByDriver(ctx, driverID)
}

func (s *Service) CreateCab(ctx context.Context, cmd CreateCabCommand) (*Cab, error) {
	cmd.VehicleClass = strings.ToLower(strings.TrimSpace(cmd.VehicleClass))
	cmd.PlateNumber = strings.ToUpper(strings.TrimSpace(cmd.PlateNumber))
	if err := s.validate.Struct(cmd); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	c := &Cab{
		ID:           types.NewID(),
		PlateNumber:  cmd.PlateNumber,
		VehicleClass: cmd.VehicleClass,
		RatePerKm:    cmd.RatePerKm,
		Electric:     cmd.Electric,
		Seats:        cmd.Seats,
		Available:    true,
		DriverID:     cmd.DriverID,
		CreatedAt:    time.Now(),
	}
	if err := s.repo.CreateCab(ctx, c); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"cab_id": c.ID, "plate": c.PlateNumber}).Info("cab registered")
	return c, nil
}

// SetAvailability is the admin override. available=false puts the cab on
// hold; available=true lifts the hold. A cab serving a booking stays reserved
// until the booking ends either way.
func (s *Service) SetAvailability(ctx context.Context, id types.ID, available bool) (*Cab, error) {
	if err := s.repo.SetCabHold(ctx, id, !available); err != nil {
		return nil, err
	}
	c, err := s.repo.GetCab(ctx, id)
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"cab_id": id, "on_hold": c.OnHold, "reserved": !c.Available}).Info("cab hold updated")
	return c, nil
}

func (s *Service) DeleteCab(ctx context.Context, id types.ID) error {
	return s.repo.DeleteCab(ctx, id)
}

func (s *Service) ListDrivers(ctx context.Context) ([]Driver, error) {
	return s.repo.ListDrivers(ctx)
}

func (s *Service) GetDriver(ctx context.Context, id types.ID) (*Driver, error) {
	return s.repo.GetDriver(ctx, id)
}

func (s *Service) DriverByEmail(ctx context.Context, email string) (*Driver, error) {
	return s.repo.GetDriverByEmail(ctx, strings.TrimSpace(email))
}

func (s *Service) CreateDriver(ctx context.Context, cmd CreateDriverCommand) (*Driver, error) {
	cmd.Email = strings.ToLower(strings.TrimSpace(cmd.Email))
	if err := s.validate.Struct(cmd); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	hash, err := infra.HashPassword(cmd.Password)
	if err != nil {
		return nil, err
	}
	d := &Driver{
		ID:            types.NewID(),
		Name:          cmd.Name,
		Email:         cmd.Email,
		LicenseNumber: cmd.LicenseNumber,
		Phone:         cmd.Phone,
		Rating:        cmd.Rating,
		Available:     true,
		PasswordHash:  hash,
		CreatedAt:     time.Now(),
	}
	if err := s.repo.CreateDriver(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) DeleteDriver(ctx context.Context, id types.ID) error {
	return s.repo.DeleteDriver(ctx, id)
}

func (s *Service) RegisterDeviceToken(ctx context.Context, driverID types.ID, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrBadRequest
	}
	return s.repo.UpdateDeviceToken(ctx, driverID, token)
}
