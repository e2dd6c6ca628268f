package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rongwang/property-rental-server/internal/auth"
	"github.com/rongwang/property-rental-server/internal/models"
	"github.com/rongwang/property-rental-server/internal/policy"
	"github.com/rongwang/property-rental-server/internal/repository"
	"github.com/rongwang/property-rental-server/internal/utils"
	"github.com/sirupsen/logrus"
)

var tenantRole = policy.RoleTenant.String()

// ListTenants returns the tenant roster. search_by and term go together;
// with neither the whole roster is returned.
func (s *DefaultService) ListTenants(ctx context.Context, actor policy.Actor, search models.TenantSearch) ([]models.User, error) {
	if err := s.authorize(actor, policy.ActionList, policy.Collection(policy.Tenants)); err != nil {
		return nil, err
	}

	verr := models.Validate(s.validate, search)
	switch {
	case search.SearchBy == "" && search.Term != "":
		verr.Add("search_by", "Please provide both Search By and Search Term.", "validation_required")
	case search.SearchBy != "" && search.Term == "":
		verr.Add("term", "Please provide both Search By and Search Term.", "validation_required")
	case search.SearchBy == "user_id":
		if id, err := strconv.ParseInt(search.Term, 10, 64); err != nil || id <= 0 {
			verr.Add("term", "User Id must be a positive whole number.", "validation_gt")
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	tenants, err := s.repo.SearchUsers(ctx, tenantRole, repository.UserFilter{
		Column: search.SearchBy,
		Term:   search.Term,
		Strict: search.Strict,
	})
	if err != nil {
		return nil, fmt.Errorf("error searching tenants: %w", err)
	}
	return tenants, nil
}

func (s *DefaultService) loadTenant(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting tenant: %w", err)
	}
	if user == nil || user.Role != tenantRole {
		return nil, notFound("tenant", id)
	}
	return user, nil
}

func (s *DefaultService) GetTenant(ctx context.Context, actor policy.Actor, id int64) (*models.User, error) {
	if err := s.authorize(actor, policy.ActionView, policy.Collection(policy.Tenants)); err != nil {
		return nil, err
	}
	return s.loadTenant(ctx, id)
}

// UpdateTenant edits a tenant's profile. The username must stay unique
// among other users; an empty password keeps the current one.
func (s *DefaultService) UpdateTenant(ctx context.Context, actor policy.Actor, id int64, req models.TenantEditRequest) (*models.User, error) {
	if err := s.authorize(actor, policy.ActionEdit, policy.Collection(policy.Tenants)); err != nil {
		return nil, err
	}
	tenant, err := s.loadTenant(ctx, id)
	if err != nil {
		return nil, err
	}

	verr := models.Validate(s.validate, req)
	if req.Username != "" && req.Username != tenant.Username {
		other, err := s.repo.GetUserByUsername(ctx, req.Username)
		if err != nil {
			return nil, fmt.Errorf("error checking username: %w", err)
		}
		if other != nil && other.ID != tenant.ID {
			verr.Add("username", "Username is already taken.", "validation_unique")
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	tenant.Username = req.Username
	tenant.FirstName = req.FirstName
	tenant.LastName = req.LastName
	tenant.Email = req.Email
	tenant.PhoneNumber = req.PhoneNumber
	if req.Password != "" {
		hashed, err := auth.HashPassword(req.Password)
		if err != nil {
			return nil, fmt.Errorf("error hashing password: %w", err)
		}
		tenant.PasswordHash = hashed
	}

	if err := s.repo.UpdateUser(ctx, tenant); err != nil {
		return nil, wrapWrite("updating", "tenant", id, err)
	}

	utils.Logger.WithFields(logrus.Fields{
		"tenant_id":        id,
		"password_changed": req.Password != "",
		"actor_id":         actor.ID,
	}).Info("Tenant updated")

	return tenant, nil
}

// DeleteTenant removes a tenant. Tenants still referenced by appointments
// or messages are in use and kept.
func (s *DefaultService) DeleteTenant(ctx context.Context, actor policy.Actor, id int64) error {
	if err := s.authorize(actor, policy.ActionDelete, policy.Collection(policy.Tenants)); err != nil {
		return err
	}
	if err := s.repo.DeleteUser(ctx, id, tenantRole); err != nil {
		return wrapWrite("deleting", "tenant", id, err)
	}

	utils.Logger.WithFields(logrus.Fields{
		"tenant_id": id,
		"actor_id":  actor.ID,
	}).Info("Tenant deleted")
	return nil
}
