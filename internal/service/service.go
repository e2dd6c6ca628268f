package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rongwang/property-rental-server/internal/apperrors"
	"github.com/rongwang/property-rental-server/internal/auth"
	"github.com/rongwang/property-rental-server/internal/lifecycle"
	"github.com/rongwang/property-rental-server/internal/models"
	"github.com/rongwang/property-rental-server/internal/policy"
	"github.com/rongwang/property-rental-server/internal/repository"
	"github.com/rongwang/property-rental-server/internal/upload"
)

// Service defines all the business logic operations. Every operation
// receives the acting user explicitly.
type Service interface {
	// Access
	SignUp(ctx context.Context, req models.SignUpRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	Profile(ctx context.Context, actor policy.Actor) (*models.ProfileResponse, error)

	// Lookups
	ListStatuses(ctx context.Context, actor policy.Actor, category string) ([]models.Status, error)
	ListApartmentTypes(ctx context.Context, actor policy.Actor) ([]models.ApartmentType, error)

	// Buildings
	ListBuildings(ctx context.Context, actor policy.Actor) ([]models.Building, error)
	GetBuilding(ctx context.Context, actor policy.Actor, code string) (*models.Building, error)
	CreateBuilding(ctx context.Context, actor policy.Actor, req models.BuildingRequest) (*models.Building, error)
	UpdateBuilding(ctx context.Context, actor policy.Actor, code string, req models.BuildingRequest) (*models.Building, error)
	DeleteBuilding(ctx context.Context, actor policy.Actor, code string) error

	// Apartments
	ListApartments(ctx context.Context, actor policy.Actor) ([]models.ApartmentView, error)
	GetApartment(ctx context.Context, actor policy.Actor, id int64) (*models.ApartmentView, error)
	CreateApartment(ctx context.Context, actor policy.Actor, req models.ApartmentRequest, image *multipart.FileHeader) (*models.ApartmentView, error)
	UpdateApartment(ctx context.Context, actor policy.Actor, id int64, req models.ApartmentRequest, image *multipart.FileHeader) (*models.ApartmentView, error)
	DeleteApartment(ctx context.Context, actor policy.Actor, id int64) error
	GetApartmentImage(ctx context.Context, actor policy.Actor, id int64) (*models.ApartmentImage, error)

	// Available apartments
	ListAvailableApartments(ctx context.Context, actor policy.Actor) ([]models.ApartmentView, error)
	GetAvailableApartment(ctx context.Context, actor policy.Actor, id int64) (*models.ApartmentView, error)
	GetAvailableApartmentImage(ctx context.Context, actor policy.Actor, id int64) (*models.ApartmentImage, error)

	// Tenant roster
	ListTenants(ctx context.Context, actor policy.Actor, search models.TenantSearch) ([]models.User, error)
	GetTenant(ctx context.Context, actor policy.Actor, id int64) (*models.User, error)
	UpdateTenant(ctx context.Context, actor policy.Actor, id int64, req models.TenantEditRequest) (*models.User, error)
	DeleteTenant(ctx context.Context, actor policy.Actor, id int64) error

	// Appointments
	ListAppointments(ctx context.Context, actor policy.Actor) ([]models.AppointmentView, error)
	GetAppointment(ctx context.Context, actor policy.Actor, id int64) (*models.AppointmentView, error)
	CreateAppointment(ctx context.Context, actor policy.Actor, req models.AppointmentRequest) (*models.AppointmentView, error)
	ConfirmAppointment(ctx context.Context, actor policy.Actor, id int64) (*models.AppointmentView, error)
	CancelAppointment(ctx context.Context, actor policy.Actor, id int64) (*models.AppointmentView, error)

	// Events
	ListEvents(ctx context.Context, actor policy.Actor) ([]models.EventView, error)
	GetEvent(ctx context.Context, actor policy.Actor, id int64) (*models.EventView, error)
	CreateEvent(ctx context.Context, actor policy.Actor, req models.EventRequest) (*models.EventView, error)
	UpdateEvent(ctx context.Context, actor policy.Actor, id int64, req models.EventRequest) (*models.EventView, error)
	DeleteEvent(ctx context.Context, actor policy.Actor, id int64) error
	ListManagedApartments(ctx context.Context, actor policy.Actor) ([]models.ApartmentView, error)

	// Messages
	ListMessages(ctx context.Context, actor policy.Actor) ([]models.MessageView, error)
	GetMessage(ctx context.Context, actor policy.Actor, id int64) (*models.MessageView, error)
	CreateMessage(ctx context.Context, actor policy.Actor, req models.MessageRequest) (*models.MessageView, error)
	ListContacts(ctx context.Context, actor policy.Actor) ([]models.Contact, error)
}

// DefaultService implements the Service interface
type DefaultService struct {
	repo           repository.Repository
	tokens         *auth.TokenService
	validate       *validator.Validate
	now            func() time.Time
	maxUploadBytes int64
}

// Option customises a DefaultService
type Option func(*DefaultService)

// WithClock replaces the wall clock used for date rules and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *DefaultService) { s.now = now }
}

// WithMaxUploadBytes caps the size of uploaded images.
func WithMaxUploadBytes(n int64) Option {
	return func(s *DefaultService) {
		if n > 0 {
			s.maxUploadBytes = n
		}
	}
}

// NewDefaultService creates a new DefaultService
func NewDefaultService(repo repository.Repository, tokens *auth.TokenService, opts ...Option) Service {
	s := &DefaultService{
		repo:           repo,
		tokens:         tokens,
		validate:       models.NewValidator(),
		now:            time.Now,
		maxUploadBytes: upload.DefaultMaxBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// authorize runs the access policy. Anonymous actors are unauthorized;
// denied ones are forbidden.
func (s *DefaultService) authorize(actor policy.Actor, action policy.Action, res policy.Resource) error {
	if !actor.Authenticated() {
		return apperrors.ErrUnauthorized
	}
	if !policy.Decide(actor, action, res).Allowed() {
		return apperrors.ErrForbidden
	}
	return nil
}

// userNames resolves display names for ids with one batched lookup.
func (s *DefaultService) userNames(ctx context.Context, ids []int64) (map[int64]string, error) {
	users, err := s.repo.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("error loading users: %w", err)
	}
	names := make(map[int64]string, len(users))
	for id, u := range users {
		names[id] = u.FullName()
	}
	return names, nil
}

// checkStatus verifies that statusID exists and belongs to want, adding
// the failure to verr.
func (s *DefaultService) checkStatus(ctx context.Context, statusID int64, want lifecycle.Category, verr *apperrors.ValidationError) error {
	if statusID <= 0 {
		return nil
	}
	status, err := s.repo.GetStatus(ctx, statusID)
	if err != nil {
		return fmt.Errorf("error loading status: %w", err)
	}
	if status == nil {
		verr.Add("status_id", fmt.Sprintf("Status %d does not exist.", statusID), "validation_exists")
		return nil
	}
	verr.Merge(lifecycle.CheckCategory(status.ID, lifecycle.Category(status.Category), want))
	return nil
}

// notFound wraps ErrNotFound with the missing record.
func notFound(kind string, key interface{}) error {
	return fmt.Errorf("%s %v: %w", kind, key, apperrors.ErrNotFound)
}

// wrapWrite keeps validation errors and the repository's NotFound,
// Conflict and InUse outcomes recognisable, and labels anything else as an
// upstream failure.
func wrapWrite(op, kind string, key interface{}, err error) error {
	if _, ok := apperrors.AsValidation(err); ok {
		return err
	}
	for _, sentinel := range []error{apperrors.ErrNotFound, apperrors.ErrConflict, apperrors.ErrInUse} {
		if errors.Is(err, sentinel) {
			return fmt.Errorf("%s %v: %w", kind, key, err)
		}
	}
	return fmt.Errorf("error %s %s: %w", op, kind, err)
}
