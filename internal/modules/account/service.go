// README: Account service handles registration, login and admin user management.
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"cabsys/internal/infra"
	"cabsys/internal/modules/fleet"
	"cabsys/internal/types"
)

type TokenIssuer interface {
	GenerateToken(userID, email, role string) (string, error)
}

// DriverLookup resolves driver logins against the fleet roster.
type DriverLookup interface {
	DriverByEmail(ctx context.Context, email string) (*fleet.Driver, error)
}

type Service struct {
	users    Repository
	drivers  DriverLookup
	tokens   TokenIssuer
	log      logrus.FieldLogger
	validate *validator.Validate
}

func NewService(users Repository, drivers DriverLookup, tokens TokenIssuer, log logrus.FieldLogger) *Service {
	return &Service{users: users, drivers: drivers, tokens: tokens, log: log, validate: validator.New()}
}

type RegisterCommand struct {
	Name     string `validate:"required,max=100"`
	Email    string `validate:"required,email"`
	Phone    string `validate:"required,min=7,max=15"`
	Address  string `validate:"max=255"`
	Password string `validate:"required,min=6"`
}

type LoginCommand struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

func (s *Service) Register(ctx context.Context, cmd RegisterCommand) (*User, error) {
	return s.create(ctx, cmd, RoleUser)
}

func (s *Service) create(ctx context.Context, cmd RegisterCommand, role Role) (*User, error) {
	cmd.Email = strings.ToLower(strings.TrimSpace(cmd.Email))
	cmd.Name = strings.TrimSpace(cmd.Name)
	if err := s.validate.Struct(cmd); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	hash, err := infra.HashPassword(cmd.Password)
	if err != nil {
		return nil, err
	}
	u := &User{
		ID:           types.NewID(),
		Name:         cmd.Name,
		Email:        cmd.Email,
		Phone:        cmd.Phone,
		Address:      cmd.Address,
		Role:         role,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"user_id": u.ID, "role": u.Role}).Info("account registered")
	return u, nil
}

func (s *Service) Login(ctx context.Context, cmd LoginCommand) (*Session, error) {
	if err := s.validate.Struct(cmd); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	u, err := s.users.GetByEmail(ctx, strings.TrimSpace(cmd.Email))
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !infra.CheckPassword(u.PasswordHash, cmd.Password) {
		return nil, ErrInvalidCredentials
	}
	return s.session(u.ID, u.Name, u.Email, u.Role)
}

func (s *Service) LoginDriver(ctx context.Context, cmd LoginCommand) (*Session, error) {
	if err := s.validate.Struct(cmd); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	d, err := s.drivers.DriverByEmail(ctx, cmd.Email)
	if errors.Is(err, fleet.ErrDriverNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !infra.CheckPassword(d.PasswordHash, cmd.Password) {
		return nil, ErrInvalidCredentials
	}
	return s.session(d.ID, d.Name, d.Email, RoleDriver)
}

func (s *Service) session(id types.ID, name, email string, role Role) (*Session, error) {
	tok, err := s.tokens.GenerateToken(string(id), email, string(role))
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Session{Token: tok, UID: id, Name: name, Email: email, Role: role}, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*User, error) {
	return s.users.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.users.List(ctx)
}

func (s *Service) Delete(ctx context.Context, id types.ID) error {
	return s.users.Delete(ctx, id)
}

var demoUsers = []RegisterCommand{
	{Name: "John Doe", Email: "john@example.com", Phone: "9876543210", Address: "123 Main St, New York", Password: "password123"},
	{Name: "Jane Smith", Email: "jane@example.com", Phone: "9876543211", Address: "456 Park Ave, Los Angeles", Password: "password123"},
	{Name: "Mike Johnson", Email: "mike@example.com", Phone: "9876543212", Address: "789 Oak Rd, Chicago", Password: "password123"},
}

// EnsureAdmin creates the admin account if the email is not yet registered.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) error {
	_, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}
	_, err = s.create(ctx, RegisterCommand{
		Name: "Admin User", Email: email, Phone: "9999999999",
		Address: "Admin Office, Cab System HQ", Password: password,
	}, RoleAdmin)
	return err
}

// SeedDemo registers the sample riders; already registered emails are skipped.
func (s *Service) SeedDemo(ctx context.Context) error {
	for _, cmd := range demoUsers {
		if _, err := s.create(ctx, cmd, RoleUser); err != nil && !errors.Is(err, ErrEmailTaken) {
			return err
		}
	}
	return nil
}
