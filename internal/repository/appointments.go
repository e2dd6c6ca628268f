package repository

import (
	"context"

	"github.com/rongwang/property-rental-server/internal/models"
)

func (r *SQLRepository) CreateAppointment(ctx context.Context, a *models.Appointment) error {
	query := `
		INSERT INTO appointments (tenant_id, manager_id, apartment_id, appointment_datetime, description, status_id, row_version)
		VALUES (?, ?, ?, ?, ?, ?, 1)
		RETURNING id
	`
	id, err := r.insertReturningID(ctx, query,
		a.TenantID, a.ManagerID, a.ApartmentID, a.AppointmentDateTime, a.Description, a.StatusID)
	if err != nil {
		return err
	}
	a.ID = id
	a.RowVersion = 1
	return nil
}

func (r *SQLRepository) GetAppointment(ctx context.Context, id int64) (*models.Appointment, error) {
	var appointment models.Appointment
	found, err := r.get(ctx, &appointment, `SELECT * FROM appointments WHERE id = ?`, id)
	if err != nil || !found {
		return nil, err
	}
	return &appointment, nil
}

// ListAppointmentsForUser returns the appointments userID is a party to,
// newest first.
func (r *SQLRepository) ListAppointmentsForUser(ctx context.Context, userID int64) ([]models.Appointment, error) {
	query := `
		SELECT * FROM appointments
		WHERE manager_id = ? OR tenant_id = ?
		ORDER BY appointment_datetime DESC, id DESC
	`
	appointments := []models.Appointment{}
	if err := r.db.SelectContext(ctx, &appointments, r.db.Rebind(query), userID, userID); err != nil {
		return nil, err
	}
	return appointments, nil
}

// UpdateAppointmentStatus persists a.StatusID when a.RowVersion is current.
func (r *SQLRepository) UpdateAppointmentStatus(ctx context.Context, a *models.Appointment) error {
	query := `
		UPDATE appointments
		SET status_id = ?, row_version = row_version + 1
		WHERE id = ? AND row_version = ?
	`
	if err := r.execVersioned(ctx, "appointments", "id", a.ID, query, a.StatusID, a.ID, a.RowVersion); err != nil {
		return err
	}
	a.RowVersion++
	return nil
}
