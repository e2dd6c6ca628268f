package repository

import (
	"context"

	"github.com/rongwang/property-rental-server/internal/apperrors"
	"github.com/rongwang/property-rental-server/internal/models"
)

func (r *SQLRepository) ListBuildings(ctx context.Context) ([]models.Building, error) {
	buildings := []models.Building{}
	err := r.db.SelectContext(ctx, &buildings, `SELECT * FROM buildings ORDER BY code`)
	if err != nil {
		return nil, err
	}
	return buildings, nil
}

func (r *SQLRepository) GetBuilding(ctx context.Context, code string) (*models.Building, error) {
	var building models.Building
	found, err := r.get(ctx, &building, `SELECT * FROM buildings WHERE code = ?`, code)
	if err != nil || !found {
		return nil, err
	}
	return &building, nil
}

func (r *SQLRepository) CreateBuilding(ctx context.Context, b *models.Building) error {
	query := `
		INSERT INTO buildings (code, owner_id, manager_id, name, description, address, city, province, zip_code, row_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1)
	`
	_, err := r.db.ExecContext(ctx, r.db.Rebind(query),
		b.Code, b.OwnerID, b.ManagerID, b.Name, b.Description,
		b.Address, b.City, b.Province, b.ZipCode)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.Field("code", "Building code is already in use.", "validation_unique")
		}
		return err
	}
	b.RowVersion = 1
	return nil
}

// UpdateBuilding saves b when its RowVersion is still current and bumps
// the version on success.
func (r *SQLRepository) UpdateBuilding(ctx context.Context, b *models.Building) error {
	query := `
		UPDATE buildings
		SET owner_id = ?, manager_id = ?, name = ?, description = ?, address = ?,
			city = ?, province = ?, zip_code = ?, row_version = row_version + 1
		WHERE code = ? AND row_version = ?
	`
	err := r.execVersioned(ctx, "buildings", "code", b.Code, query,
		b.OwnerID, b.ManagerID, b.Name, b.Description, b.Address,
		b.City, b.Province, b.ZipCode, b.Code, b.RowVersion)
	if err != nil {
		return err
	}
	b.RowVersion++
	return nil
}

func (r *SQLRepository) DeleteBuilding(ctx context.Context, code string) error {
	return r.execDelete(ctx, `DELETE FROM buildings WHERE code = ?`, code)
}
