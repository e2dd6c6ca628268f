package repository

import (
	"context"

	"github.com/rongwang/property-rental-server/internal/models"
)

func (r *SQLRepository) ListEvents(ctx context.Context) ([]models.Event, error) {
	events := []models.Event{}
	err := r.db.SelectContext(ctx, &events, `SELECT * FROM events ORDER BY event_date DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *SQLRepository) CountEventsNotInStatus(ctx context.Context, statusID int64) (int, error) {
	return r.count(ctx, `SELECT COUNT(1) FROM events WHERE status_id <> ?`, statusID)
}

func (r *SQLRepository) GetEvent(ctx context.Context, id int64) (*models.Event, error) {
	var event models.Event
	found, err := r.get(ctx, &event, `SELECT * FROM events WHERE id = ?`, id)
	if err != nil || !found {
		return nil, err
	}
	return &event, nil
}

func (r *SQLRepository) CreateEvent(ctx context.Context, e *models.Event) error {
	query := `
		INSERT INTO events (manager_id, apartment_id, description, event_date, status_id, row_version)
		VALUES (?, ?, ?, ?, ?, 1)
		RETURNING id
	`
	id, err := r.insertReturningID(ctx, query, e.ManagerID, e.ApartmentID, e.Description, e.EventDate, e.StatusID)
	if err != nil {
		return err
	}
	e.ID = id
	e.RowVersion = 1
	return nil
}

// UpdateEvent saves e when its RowVersion is still current.
func (r *SQLRepository) UpdateEvent(ctx context.Context, e *models.Event) error {
	query := `
		UPDATE events
		SET manager_id = ?, apartment_id = ?, description = ?, event_date = ?, status_id = ?,
			row_version = row_version + 1
		WHERE id = ? AND row_version = ?
	`
	err := r.execVersioned(ctx, "events", "id", e.ID, query,
		e.ManagerID, e.ApartmentID, e.Description, e.EventDate, e.StatusID, e.ID, e.RowVersion)
	if err != nil {
		return err
	}
	e.RowVersion++
	return nil
}

func (r *SQLRepository) DeleteEvent(ctx context.Context, id int64) error {
	return r.execDelete(ctx, `DELETE FROM events WHERE id = ?`, id)
}
