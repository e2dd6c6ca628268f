package service

import (
	"context"
	"fmt"

	"github.com/rongwang/property-rental-server/internal/apperrors"
	"github.com/rongwang/property-rental-server/internal/auth"
	"github.com/rongwang/property-rental-server/internal/lifecycle"
	"github.com/rongwang/property-rental-server/internal/models"
	"github.com/rongwang/property-rental-server/internal/policy"
	"github.com/rongwang/property-rental-server/internal/utils"
	"github.com/sirupsen/logrus"
)

// SignUp creates an account. The uniqueness check and insert are one
// atomic unit in the repository.
func (s *DefaultService) SignUp(ctx context.Context, req models.SignUpRequest) (*models.AuthResponse, error) {
	if verr := models.Validate(s.validate, req); verr.HasErrors() {
		return nil, verr
	}

	role, err := policy.ParseRole(req.Role)
	if err != nil {
		return nil, apperrors.Field("role", err.Error(), "validation_oneof")
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		Username:     req.Username,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PhoneNumber:  req.PhoneNumber,
		PasswordHash: hashedPassword,
		Role:         role.String(),
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		if _, ok := apperrors.AsValidation(err); ok {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	utils.Logger.WithFields(logrus.Fields{
		"user_id": user.ID,
		"role":    user.Role,
	}).Info("User signed up")

	return &models.AuthResponse{
		Status:   "success",
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
	}, nil
}

// Login verifies credentials and issues a session token.
func (s *DefaultService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	if verr := models.Validate(s.validate, req); verr.HasErrors() {
		return nil, verr
	}

	user, err := s.repo.GetUserByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrUnauthorized,
			apperrors.Field("username", "Username does not exist.", "validation_exists"))
	}

	if !auth.CheckPassword(req.Password, user.PasswordHash) {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrUnauthorized,
			apperrors.Field("password", "Password is incorrect.", "validation_password"))
	}

	role, err := policy.ParseRole(user.Role)
	if err != nil {
		return nil, fmt.Errorf("stored user %d: %w", user.ID, err)
	}

	token, err := s.tokens.Issue(user.ID, user.Username, role)
	if err != nil {
		return nil, fmt.Errorf("error generating token: %w", err)
	}

	return &models.AuthResponse{
		Status:    "success",
		UserID:    user.ID,
		Username:  user.Username,
		Role:      user.Role,
		Token:     token,
		ExpiresIn: int(s.tokens.TTL().Seconds()),
	}, nil
}

// Profile returns the actor's account and, for owners, the dashboard counts.
func (s *DefaultService) Profile(ctx context.Context, actor policy.Actor) (*models.ProfileResponse, error) {
	if err := s.authorize(actor, policy.ActionView, policy.Collection(policy.Profile)); err != nil {
		return nil, err
	}

	user, err := s.repo.GetUserByID(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	if user == nil {
		// The account was removed after the token was issued.
		return nil, apperrors.ErrUnauthorized
	}

	resp := &models.ProfileResponse{User: *user}
	if actor.Role != policy.RoleOwner {
		return resp, nil
	}

	stats := &models.DashboardStats{}
	if stats.Tenants, err = s.repo.CountUsersByRole(ctx, policy.RoleTenant.String()); err != nil {
		return nil, fmt.Errorf("error counting tenants: %w", err)
	}
	if stats.Managers, err = s.repo.CountUsersByRole(ctx, policy.RoleManager.String()); err != nil {
		return nil, fmt.Errorf("error counting managers: %w", err)
	}
	if stats.OpenEvents, err = s.repo.CountEventsNotInStatus(ctx, lifecycle.EventSolved); err != nil {
		return nil, fmt.Errorf("error counting events: %w", err)
	}
	resp.Stats = stats
	return resp, nil
}

// ListStatuses returns the status lookup, optionally for one category.
func (s *DefaultService) ListStatuses(ctx context.Context, actor policy.Actor, category string) ([]models.Status, error) {
	if err := s.authorize(actor, policy.ActionList, policy.Collection(policy.Lookups)); err != nil {
		return nil, err
	}
	if category != "" {
		if _, ok := lifecycle.ParseCategory(category); !ok {
			return nil, apperrors.Field("category",
				fmt.Sprintf("Unknown status category %q.", category), "validation_oneof")
		}
	}
	statuses, err := s.repo.ListStatuses(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("error listing statuses: %w", err)
	}
	return statuses, nil
}

func (s *DefaultService) ListApartmentTypes(ctx context.Context, actor policy.Actor) ([]models.ApartmentType, error) {
	if err := s.authorize(actor, policy.ActionList, policy.Collection(policy.Lookups)); err != nil {
		return nil, err
	}
	types, err := s.repo.ListApartmentTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing apartment types: %w", err)
	}
	return types, nil
}
