package service

import (
	"context"
	"fmt"

	"github.com/rongwang/property-rental-server/internal/lifecycle"
	"github.com/rongwang/property-rental-server/internal/models"
	"github.com/rongwang/property-rental-server/internal/policy"
	"github.com/rongwang/property-rental-server/internal/utils"
	"github.com/sirupsen/logrus"
)

func appointmentRecord(a *models.Appointment) policy.Resource {
	return policy.AppointmentRecord(a.ManagerID, a.TenantID)
}

func (s *DefaultService) appointmentViews(ctx context.Context, appointments []models.Appointment) ([]models.AppointmentView, error) {
	ids := make([]int64, 0, len(appointments)*2)
	for _, a := range appointments {
		ids = append(ids, a.TenantID)
		if a.ManagerID != nil {
			ids = append(ids, *a.ManagerID)
		}
	}
	names, err := s.userNames(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]models.AppointmentView, 0, len(appointments))
	for _, a := range appointments {
		view := models.AppointmentView{
			Appointment: a,
			TenantName:  names[a.TenantID],
			Status:      lifecycle.DescriptionOf(a.StatusID),
		}
		if a.ManagerID != nil {
			view.ManagerName = names[*a.ManagerID]
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *DefaultService) appointmentView(ctx context.Context, a *models.Appointment) (*models.AppointmentView, error) {
	views, err := s.appointmentViews(ctx, []models.Appointment{*a})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// ListAppointments returns only the appointments the actor is a party to.
func (s *DefaultService) ListAppointments(ctx context.Context, actor policy.Actor) ([]models.AppointmentView, error) {
	if err := s.authorize(actor, policy.ActionList, policy.Collection(policy.Appointments)); err != nil {
		return nil, err
	}
	appointments, err := s.repo.ListAppointmentsForUser(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("error listing appointments: %w", err)
	}
	return s.appointmentViews(ctx, appointments)
}

func (s *DefaultService) loadAppointment(ctx context.Context, id int64) (*models.Appointment, error) {
	appointment, err := s.repo.GetAppointment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting appointment: %w", err)
	}
	if appointment == nil {
		return nil, notFound("appointment", id)
	}
	return appointment, nil
}

func (s *DefaultService) GetAppointment(ctx context.Context, actor policy.Actor, id int64) (*models.AppointmentView, error) {
	if err := s.authorize(actor, policy.ActionView, policy.Collection(policy.Appointments)); err != nil {
		return nil, err
	}
	appointment, err := s.loadAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(actor, policy.ActionView, appointmentRecord(appointment)); err != nil {
		return nil, err
	}
	return s.appointmentView(ctx, appointment)
}

// CreateAppointment books a viewing for the acting tenant. The tenant,
// the manager (taken from the apartment's building) and the Pending status
// are set here whatever the client sent.
func (s *DefaultService) CreateAppointment(ctx context.Context, actor policy.Actor, req models.AppointmentRequest) (*models.AppointmentView, error) {
	if err := s.authorize(actor, policy.ActionCreate, policy.Collection(policy.Appointments)); err != nil {
		return nil, err
	}

	verr := models.Validate(s.validate, req)
	if !verr.Has("appointment_datetime") {
		verr.Merge(lifecycle.ValidateAppointmentTime(req.AppointmentDateTime, s.now()))
	}

	var apartment *models.Apartment
	if req.ApartmentID > 0 {
		var err error
		apartment, err = s.repo.GetApartment(ctx, req.ApartmentID)
		if err != nil {
			return nil, fmt.Errorf("error getting apartment: %w", err)
		}
		if apartment == nil {
			verr.Add("apartment_id", fmt.Sprintf("Apartment %d does not exist.", req.ApartmentID), "validation_exists")
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	building, err := s.loadBuilding(ctx, apartment.BuildingCode)
	if err != nil {
		return nil, err
	}

	appointment := &models.Appointment{
		TenantID:            actor.ID,
		ManagerID:           building.ManagerID,
		ApartmentID:         apartment.ID,
		AppointmentDateTime: req.AppointmentDateTime,
		Description:         req.Description,
		StatusID:            lifecycle.AppointmentPending,
	}
	if err := s.repo.CreateAppointment(ctx, appointment); err != nil {
		return nil, fmt.Errorf("error creating appointment: %w", err)
	}

	utils.Logger.WithFields(logrus.Fields{
		"appointment_id": appointment.ID,
		"apartment_id":   appointment.ApartmentID,
		"tenant_id":      appointment.TenantID,
		"has_manager":    appointment.ManagerID != nil,
	}).Info("Appointment created")

	return s.appointmentView(ctx, appointment)
}

func (s *DefaultService) ConfirmAppointment(ctx context.Context, actor policy.Actor, id int64) (*models.AppointmentView, error) {
	return s.transitionAppointment(ctx, actor, id, lifecycle.AppointmentConfirmed)
}

func (s *DefaultService) CancelAppointment(ctx context.Context, actor policy.Actor, id int64) (*models.AppointmentView, error) {
	return s.transitionAppointment(ctx, actor, id, lifecycle.AppointmentCanceled)
}

// transitionAppointment moves a Pending appointment to target. Only the
// appointment's manager may do so; the write is conditional on the row
// version that was read.
func (s *DefaultService) transitionAppointment(ctx context.Context, actor policy.Actor, id, target int64) (*models.AppointmentView, error) {
	if err := s.authorize(actor, policy.ActionTransition, policy.Collection(policy.Appointments)); err != nil {
		return nil, err
	}
	appointment, err := s.loadAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(actor, policy.ActionTransition, appointmentRecord(appointment)); err != nil {
		return nil, err
	}

	from := appointment.StatusID
	next, err := lifecycle.TransitionAppointment(from, target)
	if err != nil {
		return nil, err
	}
	appointment.StatusID = next
	if err := s.repo.UpdateAppointmentStatus(ctx, appointment); err != nil {
		return nil, wrapWrite("updating", "appointment", id, err)
	}

	utils.Logger.WithFields(logrus.Fields{
		"appointment_id": id,
		"from":           lifecycle.DescriptionOf(from),
		"to":             lifecycle.DescriptionOf(next),
		"actor_id":       actor.ID,
	}).Info("Appointment status changed")

	return s.appointmentView(ctx, appointment)
}
