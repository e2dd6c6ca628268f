package service

import (
	"context"
	"fmt"

	"github.com/rongwang/property-rental-server/internal/apperrors"
	"github.com/rongwang/property-rental-server/internal/models"
	"github.com/rongwang/property-rental-server/internal/policy"
	"github.com/rongwang/property-rental-server/internal/utils"
	"github.com/sirupsen/logrus"
)

func (s *DefaultService) ListBuildings(ctx context.Context, actor policy.Actor) ([]models.Building, error) {
	if err := s.authorize(actor, policy.ActionList, policy.Collection(policy.Buildings)); err != nil {
		return nil, err
	}
	buildings, err := s.repo.ListBuildings(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing buildings: %w", err)
	}
	return buildings, nil
}

func (s *DefaultService) GetBuilding(ctx context.Context, actor policy.Actor, code string) (*models.Building, error) {
	if err := s.authorize(actor, policy.ActionView, policy.Collection(policy.Buildings)); err != nil {
		return nil, err
	}
	return s.loadBuilding(ctx, code)
}

func (s *DefaultService) loadBuilding(ctx context.Context, code string) (*models.Building, error) {
	building, err := s.repo.GetBuilding(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("error getting building: %w", err)
	}
	if building == nil {
		return nil, notFound("building", code)
	}
	return building, nil
}

// validateBuilding runs the request rules and checks that the referenced
// users hold the expected roles.
func (s *DefaultService) validateBuilding(ctx context.Context, req models.BuildingRequest) error {
	verr := models.Validate(s.validate, req)

	if req.OwnerID > 0 {
		if err := s.checkUserRole(ctx, "owner_id", req.OwnerID, policy.RoleOwner, verr); err != nil {
			return err
		}
	}
	if req.ManagerID != nil && *req.ManagerID > 0 {
		if err := s.checkUserRole(ctx, "manager_id", *req.ManagerID, policy.RoleManager, verr); err != nil {
			return err
		}
	}
	return verr.OrNil()
}

func (s *DefaultService) checkUserRole(ctx context.Context, field string, userID int64, role policy.Role, verr *apperrors.ValidationError) error {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("error getting user: %w", err)
	}
	if user == nil || user.Role != role.String() {
		verr.Add(field, fmt.Sprintf("User %d is not a %s.", userID, role), "validation_role")
	}
	return nil
}

func (s *DefaultService) CreateBuilding(ctx context.Context, actor policy.Actor, req models.BuildingRequest) (*models.Building, error) {
	if err := s.authorize(actor, policy.ActionCreate, policy.Collection(policy.Buildings)); err != nil {
		return nil, err
	}
	if err := s.validateBuilding(ctx, req); err != nil {
		return nil, err
	}

	building := &models.Building{Code: req.Code}
	applyBuildingRequest(building, req)

	if err := s.repo.CreateBuilding(ctx, building); err != nil {
		return nil, wrapWrite("creating", "building", req.Code, err)
	}

	utils.Logger.WithFields(logrus.Fields{
		"building_code": building.Code,
		"actor_id":      actor.ID,
	}).Info("Building created")

	return building, nil
}

// UpdateBuilding edits the building identified by code. The request must
// carry the row version that was loaded.
func (s *DefaultService) UpdateBuilding(ctx context.Context, actor policy.Actor, code string, req models.BuildingRequest) (*models.Building, error) {
	if err := s.authorize(actor, policy.ActionEdit, policy.Collection(policy.Buildings)); err != nil {
		return nil, err
	}
	building, err := s.loadBuilding(ctx, code)
	if err != nil {
		return nil, err
	}
	req.Code = code
	if err := s.validateBuilding(ctx, req); err != nil {
		return nil, err
	}

	applyBuildingRequest(building, req)
	building.RowVersion = req.RowVersion

	if err := s.repo.UpdateBuilding(ctx, building); err != nil {
		return nil, wrapWrite("updating", "building", code, err)
	}

	utils.Logger.WithFields(logrus.Fields{
		"building_code": code,
		"row_version":   building.RowVersion,
		"actor_id":      actor.ID,
	}).Info("Building updated")

	return building, nil
}

func (s *DefaultService) DeleteBuilding(ctx context.Context, actor policy.Actor, code string) error {
	if err := s.authorize(actor, policy.ActionDelete, policy.Collection(policy.Buildings)); err != nil {
		return err
	}
	if err := s.repo.DeleteBuilding(ctx, code); err != nil {
		return wrapWrite("deleting", "building", code, err)
	}

	utils.Logger.WithFields(logrus.Fields{
		"building_code": code,
		"actor_id":      actor.ID,
	}).Info("Building deleted")
	return nil
}

func applyBuildingRequest(b *models.Building, req models.BuildingRequest) {
	b.OwnerID = req.OwnerID
	b.ManagerID = req.ManagerID
	b.Name = req.Name
	b.Description = req.Description
	b.Address = req.Address
	b.City = req.City
	b.Province = req.Province
	b.ZipCode = req.ZipCode
}
