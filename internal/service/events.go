package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rongwang/property-rental-server/internal/apperrors"
	"github.com/rongwang/property-rental-server/internal/lifecycle"
	"github.com/rongwang/property-rental-server/internal/models"
	"github.com/rongwang/property-rental-server/internal/policy"
	"github.com/rongwang/property-rental-server/internal/utils"
	"github.com/sirupsen/logrus"
)

const eventDateLayout = "2006-01-02"

func (s *DefaultService) eventViews(ctx context.Context, events []models.Event) ([]models.EventView, error) {
	ids := make([]int64, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ManagerID)
	}
	names, err := s.userNames(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]models.EventView, 0, len(events))
	for _, e := range events {
		views = append(views, models.EventView{
			Event:       e,
			ManagerName: names[e.ManagerID],
			Status:      lifecycle.DescriptionOf(e.StatusID),
		})
	}
	return views, nil
}

func (s *DefaultService) eventView(ctx context.Context, e *models.Event) (*models.EventView, error) {
	views, err := s.eventViews(ctx, []models.Event{*e})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *DefaultService) ListEvents(ctx context.Context, actor policy.Actor) ([]models.EventView, error) {
	if err := s.authorize(actor, policy.ActionList, policy.Collection(policy.Events)); err != nil {
		return nil, err
	}
	events, err := s.repo.ListEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing events: %w", err)
	}
	return s.eventViews(ctx, events)
}

func (s *DefaultService) loadEvent(ctx context.Context, id int64) (*models.Event, error) {
	event, err := s.repo.GetEvent(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting event: %w", err)
	}
	if event == nil {
		return nil, notFound("event", id)
	}
	return event, nil
}

func (s *DefaultService) GetEvent(ctx context.Context, actor policy.Actor, id int64) (*models.EventView, error) {
	if err := s.authorize(actor, policy.ActionView, policy.Collection(policy.Events)); err != nil {
		return nil, err
	}
	event, err := s.loadEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.eventView(ctx, event)
}

// validateEvent checks the request and that the apartment sits in a
// building managed by the actor. It returns the parsed event date.
func (s *DefaultService) validateEvent(ctx context.Context, actor policy.Actor, req models.EventRequest) (time.Time, error) {
	verr := models.Validate(s.validate, req)

	var date time.Time
	if !verr.Has("event_date") {
		var err error
		date, err = time.ParseInLocation(eventDateLayout, req.EventDate, time.UTC)
		if err != nil {
			verr.Add("event_date", "Event date must be in the format YYYY-MM-DD.", "validation_datetime")
		}
	}

	if req.ApartmentID > 0 {
		if err := s.checkManagedApartment(ctx, actor, req.ApartmentID, verr); err != nil {
			return time.Time{}, err
		}
	}
	if err := s.checkStatus(ctx, req.StatusID, lifecycle.CategoryEvents, verr); err != nil {
		return time.Time{}, err
	}
	return date, verr.OrNil()
}

func (s *DefaultService) checkManagedApartment(ctx context.Context, actor policy.Actor, apartmentID int64, verr *apperrors.ValidationError) error {
	apartment, err := s.repo.GetApartment(ctx, apartmentID)
	if err != nil {
		return fmt.Errorf("error getting apartment: %w", err)
	}
	if apartment == nil {
		verr.Add("apartment_id", fmt.Sprintf("Apartment %d does not exist.", apartmentID), "validation_exists")
		return nil
	}
	building, err := s.repo.GetBuilding(ctx, apartment.BuildingCode)
	if err != nil {
		return fmt.Errorf("error getting building: %w", err)
	}
	if building == nil || building.ManagerID == nil || !actor.Is(*building.ManagerID) {
		verr.Add("apartment_id", "You can only log events for apartments in buildings you manage.", "validation_managed")
	}
	return nil
}

// ListManagedApartments lists the apartments an event can be logged for:
// those in buildings the actor manages.
func (s *DefaultService) ListManagedApartments(ctx context.Context, actor policy.Actor) ([]models.ApartmentView, error) {
	if err := s.authorize(actor, policy.ActionCreate, policy.Collection(policy.Events)); err != nil {
		return nil, err
	}
	apartments, err := s.repo.ListApartmentsManagedBy(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("error listing managed apartments: %w", err)
	}
	return apartmentViews(apartments), nil
}

// CreateEvent logs a maintenance event. The event's manager is the actor.
func (s *DefaultService) CreateEvent(ctx context.Context, actor policy.Actor, req models.EventRequest) (*models.EventView, error) {
	if err := s.authorize(actor, policy.ActionCreate, policy.Collection(policy.Events)); err != nil {
		return nil, err
	}
	date, err := s.validateEvent(ctx, actor, req)
	if err != nil {
		return nil, err
	}

	event := &models.Event{
		ManagerID:   actor.ID,
		ApartmentID: req.ApartmentID,
		Description: req.Description,
		EventDate:   date,
		StatusID:    req.StatusID,
	}
	if err := s.repo.CreateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("error creating event: %w", err)
	}

	utils.Logger.WithFields(logrus.Fields{
		"event_id":     event.ID,
		"apartment_id": event.ApartmentID,
		"actor_id":     actor.ID,
	}).Info("Event created")

	return s.eventView(ctx, event)
}

// UpdateEvent edits an event. Status moves between New, Pending and Solved
// freely; the write is conditional on the row version in the request.
func (s *DefaultService) UpdateEvent(ctx context.Context, actor policy.Actor, id int64, req models.EventRequest) (*models.EventView, error) {
	if err := s.authorize(actor, policy.ActionEdit, policy.Collection(policy.Events)); err != nil {
		return nil, err
	}
	event, err := s.loadEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	date, err := s.validateEvent(ctx, actor, req)
	if err != nil {
		return nil, err
	}

	event.ApartmentID = req.ApartmentID
	event.Description = req.Description
	event.EventDate = date
	event.StatusID = req.StatusID
	event.RowVersion = req.RowVersion
	if err := s.repo.UpdateEvent(ctx, event); err != nil {
		return nil, wrapWrite("updating", "event", id, err)
	}

	utils.Logger.WithFields(logrus.Fields{
		"event_id":    id,
		"status":      lifecycle.DescriptionOf(event.StatusID),
		"row_version": event.RowVersion,
		"actor_id":    actor.ID,
	}).Info("Event updated")

	return s.eventView(ctx, event)
}

func (s *DefaultService) DeleteEvent(ctx context.Context, actor policy.Actor, id int64) error {
	if err := s.authorize(actor, policy.ActionDelete, policy.Collection(policy.Events)); err != nil {
		return err
	}
	if err := s.repo.DeleteEvent(ctx, id); err != nil {
		return wrapWrite("deleting", "event", id, err)
	}

	utils.Logger.WithFields(logrus.Fields{
		"event_id": id,
		"actor_id": actor.ID,
	}).Info("Event deleted")
	return nil
}
