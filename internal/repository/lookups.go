package repository

import (
	"context"

	"github.com/rongwang/property-rental-server/internal/models"
)

// ListStatuses returns the statuses of one category, or all of them when
// category is empty.
func (r *SQLRepository) ListStatuses(ctx context.Context, category string) ([]models.Status, error) {
	query := `SELECT * FROM statuses`
	var args []interface{}
	if category != "" {
		query += ` WHERE category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY id`

	statuses := []models.Status{}
	if err := r.db.SelectContext(ctx, &statuses, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return statuses, nil
}

func (r *SQLRepository) GetStatus(ctx context.Context, id int64) (*models.Status, error) {
	var status models.Status
	found, err := r.get(ctx, &status, `SELECT * FROM statuses WHERE id = ?`, id)
	if err != nil || !found {
		return nil, err
	}
	return &status, nil
}

func (r *SQLRepository) ListApartmentTypes(ctx context.Context) ([]models.ApartmentType, error) {
	types := []models.ApartmentType{}
	if err := r.db.SelectContext(ctx, &types, `SELECT * FROM apartment_types ORDER BY id`); err != nil {
		return nil, err
	}
	return types, nil
}

func (r *SQLRepository) GetApartmentType(ctx context.Context, id int64) (*models.ApartmentType, error) {
	var apartmentType models.ApartmentType
	found, err := r.get(ctx, &apartmentType, `SELECT * FROM apartment_types WHERE id = ?`, id)
	if err != nil || !found {
		return nil, err
	}
	return &apartmentType, nil
}
