package service

import (
	"context"
	"fmt"
	"mime/multipart"

	"github.com/rongwang/property-rental-server/internal/apperrors"
	"github.com/rongwang/property-rental-server/internal/lifecycle"
	"github.com/rongwang/property-rental-server/internal/models"
	"github.com/rongwang/property-rental-server/internal/policy"
	"github.com/rongwang/property-rental-server/internal/upload"
	"github.com/rongwang/property-rental-server/internal/utils"
	"github.com/sirupsen/logrus"
)

func apartmentView(a models.Apartment) models.ApartmentView {
	return models.ApartmentView{Apartment: a, Status: lifecycle.DescriptionOf(a.StatusID)}
}

func apartmentViews(apartments []models.Apartment) []models.ApartmentView {
	views := make([]models.ApartmentView, 0, len(apartments))
	for _, a := range apartments {
		views = append(views, apartmentView(a))
	}
	return views
}

func (s *DefaultService) loadApartment(ctx context.Context, id int64) (*models.Apartment, error) {
	apartment, err := s.repo.GetApartment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting apartment: %w", err)
	}
	if apartment == nil {
		return nil, notFound("apartment", id)
	}
	return apartment, nil
}

func (s *DefaultService) ListApartments(ctx context.Context, actor policy.Actor) ([]models.ApartmentView, error) {
	if err := s.authorize(actor, policy.ActionList, policy.Collection(policy.Apartments)); err != nil {
		return nil, err
	}
	apartments, err := s.repo.ListApartments(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("error listing apartments: %w", err)
	}
	return apartmentViews(apartments), nil
}

func (s *DefaultService) GetApartment(ctx context.Context, actor policy.Actor, id int64) (*models.ApartmentView, error) {
	if err := s.authorize(actor, policy.ActionView, policy.Collection(policy.Apartments)); err != nil {
		return nil, err
	}
	apartment, err := s.loadApartment(ctx, id)
	if err != nil {
		return nil, err
	}
	view := apartmentView(*apartment)
	return &view, nil
}

// validateApartment checks the request, the optional image and the
// referenced rows. All failures are reported together and nothing is
// written when any exists.
func (s *DefaultService) validateApartment(ctx context.Context, req models.ApartmentRequest, fh *multipart.FileHeader) (*upload.Image, error) {
	verr := models.Validate(s.validate, req)

	image, err := upload.ReadFormFile("image", fh, s.maxUploadBytes)
	if err != nil && !verr.Merge(err) {
		return nil, err
	}

	if req.BuildingCode != "" {
		building, err := s.repo.GetBuilding(ctx, req.BuildingCode)
		if err != nil {
			return nil, fmt.Errorf("error getting building: %w", err)
		}
		if building == nil {
			verr.Add("building_code", fmt.Sprintf("Building %s does not exist.", req.BuildingCode), "validation_exists")
		}
	}
	if req.ApartmentTypeID > 0 {
		apartmentType, err := s.repo.GetApartmentType(ctx, req.ApartmentTypeID)
		if err != nil {
			return nil, fmt.Errorf("error getting apartment type: %w", err)
		}
		if apartmentType == nil {
			verr.Add("apartment_type_id", fmt.Sprintf("Apartment type %d does not exist.", req.ApartmentTypeID), "validation_exists")
		}
	}
	if err := s.checkStatus(ctx, req.StatusID, lifecycle.CategoryApartments, verr); err != nil {
		return nil, err
	}

	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	return image, nil
}

func applyApartmentRequest(a *models.Apartment, req models.ApartmentRequest) {
	a.Code = req.Code
	a.BuildingCode = req.BuildingCode
	a.ApartmentTypeID = req.ApartmentTypeID
	a.Description = req.Description
	a.Rent = req.Rent
	a.StatusID = req.StatusID
}

func (s *DefaultService) CreateApartment(ctx context.Context, actor policy.Actor, req models.ApartmentRequest, fh *multipart.FileHeader) (*models.ApartmentView, error) {
	if err := s.authorize(actor, policy.ActionCreate, policy.Collection(policy.Apartments)); err != nil {
		return nil, err
	}
	image, err := s.validateApartment(ctx, req, fh)
	if err != nil {
		return nil, err
	}

	apartment := &models.Apartment{}
	applyApartmentRequest(apartment, req)
	if err := s.repo.CreateApartment(ctx, apartment, image); err != nil {
		return nil, wrapWrite("creating", "apartment", req.Code, err)
	}

	utils.Logger.WithFields(logrus.Fields{
		"apartment_id": apartment.ID,
		"has_image":    apartment.HasImage,
		"actor_id":     actor.ID,
	}).Info("Apartment created")

	view := apartmentView(*apartment)
	return &view, nil
}

// UpdateApartment edits an apartment. Status moves between Available,
// Rented and Unavailable freely. Without a new image the stored one is kept.
func (s *DefaultService) UpdateApartment(ctx context.Context, actor policy.Actor, id int64, req models.ApartmentRequest, fh *multipart.FileHeader) (*models.ApartmentView, error) {
	if err := s.authorize(actor, policy.ActionEdit, policy.Collection(policy.Apartments)); err != nil {
		return nil, err
	}
	apartment, err := s.loadApartment(ctx, id)
	if err != nil {
		return nil, err
	}
	image, err := s.validateApartment(ctx, req, fh)
	if err != nil {
		return nil, err
	}

	applyApartmentRequest(apartment, req)
	apartment.RowVersion = req.RowVersion
	if err := s.repo.UpdateApartment(ctx, apartment, image); err != nil {
		return nil, wrapWrite("updating", "apartment", id, err)
	}

	utils.Logger.WithFields(logrus.Fields{
		"apartment_id": id,
		"status_id":    apartment.StatusID,
		"row_version":  apartment.RowVersion,
		"actor_id":     actor.ID,
	}).Info("Apartment updated")

	view := apartmentView(*apartment)
	return &view, nil
}

func (s *DefaultService) DeleteApartment(ctx context.Context, actor policy.Actor, id int64) error {
	if err := s.authorize(actor, policy.ActionDelete, policy.Collection(policy.Apartments)); err != nil {
		return err
	}
	if err := s.repo.DeleteApartment(ctx, id); err != nil {
		return wrapWrite("deleting", "apartment", id, err)
	}

	utils.Logger.WithFields(logrus.Fields{
		"apartment_id": id,
		"actor_id":     actor.ID,
	}).Info("Apartment deleted")
	return nil
}

func (s *DefaultService) GetApartmentImage(ctx context.Context, actor policy.Actor, id int64) (*models.ApartmentImage, error) {
	if err := s.authorize(actor, policy.ActionView, policy.Collection(policy.Apartments)); err != nil {
		return nil, err
	}
	return s.loadImage(ctx, id)
}

func (s *DefaultService) loadImage(ctx context.Context, id int64) (*models.ApartmentImage, error) {
	image, err := s.repo.GetApartmentImage(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting apartment image: %w", err)
	}
	if image == nil {
		return nil, notFound("apartment image", id)
	}
	return image, nil
}

// Available apartments are the tenant-facing catalogue: only apartments in
// the Available status are visible.

func (s *DefaultService) ListAvailableApartments(ctx context.Context, actor policy.Actor) ([]models.ApartmentView, error) {
	if err := s.authorize(actor, policy.ActionList, policy.Collection(policy.AvailableApartments)); err != nil {
		return nil, err
	}
	apartments, err := s.repo.ListApartments(ctx, lifecycle.ApartmentAvailable)
	if err != nil {
		return nil, fmt.Errorf("error listing available apartments: %w", err)
	}
	return apartmentViews(apartments), nil
}

func (s *DefaultService) loadAvailable(ctx context.Context, actor policy.Actor, id int64) (*models.Apartment, error) {
	if err := s.authorize(actor, policy.ActionView, policy.Collection(policy.AvailableApartments)); err != nil {
		return nil, err
	}
	apartment, err := s.loadApartment(ctx, id)
	if err != nil {
		return nil, err
	}
	if apartment.StatusID != lifecycle.ApartmentAvailable {
		return nil, fmt.Errorf("apartment %d is not available: %w", id, apperrors.ErrForbidden)
	}
	return apartment, nil
}

func (s *DefaultService) GetAvailableApartment(ctx context.Context, actor policy.Actor, id int64) (*models.ApartmentView, error) {
	apartment, err := s.loadAvailable(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	view := apartmentView(*apartment)
	return &view, nil
}

func (s *DefaultService) GetAvailableApartmentImage(ctx context.Context, actor policy.Actor, id int64) (*models.ApartmentImage, error) {
	if _, err := s.loadAvailable(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.loadImage(ctx, id)
}
