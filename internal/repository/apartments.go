package repository

import (
	"context"

	"github.com/rongwang/property-rental-server/internal/apperrors"
	"github.com/rongwang/property-rental-server/internal/models"
	"github.com/rongwang/property-rental-server/internal/upload"
)

// apartmentColumns leaves the image bytes out; they are loaded on demand.
const apartmentColumns = `a.id, a.code, a.building_code, a.apartment_type_id, a.description, a.rent,
	a.status_id, (a.image IS NOT NULL) AS has_image, a.row_version`

func duplicateApartmentCode() error {
	return apperrors.Field("code", "Apartment code is already in use in this building.", "validation_unique")
}

// imageArgs returns the bind values for the image columns. A missing image
// binds SQL NULL rather than an empty blob.
func imageArgs(img *upload.Image) (interface{}, interface{}) {
	if img == nil || len(img.Data) == 0 {
		return nil, nil
	}
	return img.Data, img.ContentType
}

// ListApartments lists apartments, restricted to one status when statusID
// is positive.
func (r *SQLRepository) ListApartments(ctx context.Context, statusID int64) ([]models.Apartment, error) {
	query := `SELECT ` + apartmentColumns + ` FROM apartments a`
	var args []interface{}
	if statusID > 0 {
		query += ` WHERE a.status_id = ?`
		args = append(args, statusID)
	}
	query += ` ORDER BY a.building_code, a.code`

	apartments := []models.Apartment{}
	if err := r.db.SelectContext(ctx, &apartments, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return apartments, nil
}

// ListApartmentsManagedBy lists apartments in buildings managed by managerID.
func (r *SQLRepository) ListApartmentsManagedBy(ctx context.Context, managerID int64) ([]models.Apartment, error) {
	query := `
		SELECT ` + apartmentColumns + `
		FROM apartments a
		JOIN buildings b ON b.code = a.building_code
		WHERE b.manager_id = ?
		ORDER BY a.building_code, a.code
	`
	apartments := []models.Apartment{}
	if err := r.db.SelectContext(ctx, &apartments, r.db.Rebind(query), managerID); err != nil {
		return nil, err
	}
	return apartments, nil
}

func (r *SQLRepository) GetApartment(ctx context.Context, id int64) (*models.Apartment, error) {
	var apartment models.Apartment
	found, err := r.get(ctx, &apartment, `SELECT `+apartmentColumns+` FROM apartments a WHERE a.id = ?`, id)
	if err != nil || !found {
		return nil, err
	}
	return &apartment, nil
}

// GetApartmentImage returns the stored image, or nil when the apartment
// does not exist or has none.
func (r *SQLRepository) GetApartmentImage(ctx context.Context, id int64) (*models.ApartmentImage, error) {
	var image models.ApartmentImage
	found, err := r.get(ctx, &image,
		`SELECT image, COALESCE(image_content_type, '') AS image_content_type FROM apartments WHERE id = ? AND image IS NOT NULL`, id)
	if err != nil || !found {
		return nil, err
	}
	return &image, nil
}

func (r *SQLRepository) CreateApartment(ctx context.Context, a *models.Apartment, img *upload.Image) error {
	data, contentType := imageArgs(img)
	query := `
		INSERT INTO apartments (code, building_code, apartment_type_id, description, rent, status_id, image, image_content_type, row_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1)
		RETURNING id
	`
	id, err := r.insertReturningID(ctx, query,
		a.Code, a.BuildingCode, a.ApartmentTypeID, a.Description, a.Rent, a.StatusID, data, contentType)
	if err != nil {
		if isUniqueViolation(err) {
			return duplicateApartmentCode()
		}
		return err
	}
	a.ID = id
	a.RowVersion = 1
	a.HasImage = data != nil
	return nil
}

// UpdateApartment saves a when its RowVersion is still current. A nil img
// keeps the stored image.
func (r *SQLRepository) UpdateApartment(ctx context.Context, a *models.Apartment, img *upload.Image) error {
	query := `
		UPDATE apartments
		SET code = ?, building_code = ?, apartment_type_id = ?, description = ?, rent = ?, status_id = ?,
			row_version = row_version + 1
		WHERE id = ? AND row_version = ?
	`
	args := []interface{}{a.Code, a.BuildingCode, a.ApartmentTypeID, a.Description, a.Rent, a.StatusID, a.ID, a.RowVersion}

	data, contentType := imageArgs(img)
	if data != nil {
		query = `
			UPDATE apartments
			SET code = ?, building_code = ?, apartment_type_id = ?, description = ?, rent = ?, status_id = ?,
				image = ?, image_content_type = ?, row_version = row_version + 1
			WHERE id = ? AND row_version = ?
		`
		args = []interface{}{a.Code, a.BuildingCode, a.ApartmentTypeID, a.Description, a.Rent, a.StatusID,
			data, contentType, a.ID, a.RowVersion}
	}

	err := r.execVersioned(ctx, "apartments", "id", a.ID, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return duplicateApartmentCode()
		}
		return err
	}
	a.RowVersion++
	if data != nil {
		a.HasImage = true
	}
	return nil
}

func (r *SQLRepository) DeleteApartment(ctx context.Context, id int64) error {
	return r.execDelete(ctx, `DELETE FROM apartments WHERE id = ?`, id)
}
