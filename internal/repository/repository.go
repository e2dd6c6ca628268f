package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/rongwang/property-rental-server/internal/apperrors"
	"github.com/rongwang/property-rental-server/internal/models"
	"github.com/rongwang/property-rental-server/internal/upload"
)

// Repository interface defines the methods that any repository implementation must satisfy.
//
// Getters return (nil, nil) when the row does not exist. Versioned updates
// and deletes return apperrors.ErrNotFound, apperrors.ErrConflict or
// apperrors.ErrInUse.
type Repository interface {
	// User operations
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []int64) (map[int64]models.User, error)
	ListUsersByRole(ctx context.Context, role string) ([]models.User, error)
	SearchUsers(ctx context.Context, role string, filter UserFilter) ([]models.User, error)
	CountUsersByRole(ctx context.Context, role string) (int, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id int64, role string) error

	// Building operations
	ListBuildings(ctx context.Context) ([]models.Building, error)
	GetBuilding(ctx context.Context, code string) (*models.Building, error)
	CreateBuilding(ctx context.Context, building *models.Building) error
	UpdateBuilding(ctx context.Context, building *models.Building) error
	DeleteBuilding(ctx context.Context, code string) error

	// Apartment operations
	ListApartments(ctx context.Context, statusID int64) ([]models.Apartment, error)
	ListApartmentsManagedBy(ctx context.Context, managerID int64) ([]models.Apartment, error)
	GetApartment(ctx context.Context, id int64) (*models.Apartment, error)
	GetApartmentImage(ctx context.Context, id int64) (*models.ApartmentImage, error)
	CreateApartment(ctx context.Context, apartment *models.Apartment, image *upload.Image) error
	UpdateApartment(ctx context.Context, apartment *models.Apartment, image *upload.Image) error
	DeleteApartment(ctx context.Context, id int64) error

	// Appointment operations
	CreateAppointment(ctx context.Context, appointment *models.Appointment) error
	GetAppointment(ctx context.Context, id int64) (*models.Appointment, error)
	ListAppointmentsForUser(ctx context.Context, userID int64) ([]models.Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, appointment *models.Appointment) error

	// Event operations
	ListEvents(ctx context.Context) ([]models.Event, error)
	CountEventsNotInStatus(ctx context.Context, statusID int64) (int, error)
	GetEvent(ctx context.Context, id int64) (*models.Event, error)
	CreateEvent(ctx context.Context, event *models.Event) error
	UpdateEvent(ctx context.Context, event *models.Event) error
	DeleteEvent(ctx context.Context, id int64) error

	// Message operations
	CreateMessage(ctx context.Context, message *models.Message) error
	GetMessage(ctx context.Context, id int64) (*models.Message, error)
	ListMessagesForUser(ctx context.Context, userID int64) ([]models.Message, error)
	UpdateMessageStatus(ctx context.Context, message *models.Message) error

	// Lookup operations
	ListStatuses(ctx context.Context, category string) ([]models.Status, error)
	GetStatus(ctx context.Context, id int64) (*models.Status, error)
	ListApartmentTypes(ctx context.Context) ([]models.ApartmentType, error)
	GetApartmentType(ctx context.Context, id int64) (*models.ApartmentType, error)
}

// SQLRepository implements the Repository interface on top of sqlx. Queries
// use ? placeholders and are rebound for the connected driver, so the same
// code runs against PostgreSQL and SQLite.
type SQLRepository struct {
	db *sqlx.DB
}

// NewSQLRepository creates a new repository
func NewSQLRepository(db *sqlx.DB) *SQLRepository {
	return &SQLRepository{
		db: db,
	}
}

// GetDB returns the underlying database connection
func (r *SQLRepository) GetDB() *sqlx.DB {
	return r.db
}

func (r *SQLRepository) get(ctx context.Context, dest interface{}, query string, args ...interface{}) (bool, error) {
	err := r.db.GetContext(ctx, dest, r.db.Rebind(query), args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *SQLRepository) count(ctx context.Context, query string, args ...interface{}) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, r.db.Rebind(query), args...); err != nil {
		return 0, err
	}
	return n, nil
}

// insertReturningID runs an INSERT ... RETURNING id and returns the new id.
func (r *SQLRepository) insertReturningID(ctx context.Context, query string, args ...interface{}) (int64, error) {
	var id int64
	if err := r.db.QueryRowxContext(ctx, r.db.Rebind(query), args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// execVersioned runs an update guarded by row_version. When no row matches
// it tells a deleted row (ErrNotFound) from a changed one (ErrConflict).
// table and keyColumn are never user input.
func (r *SQLRepository) execVersioned(ctx context.Context, table, keyColumn string, key interface{}, query string, args ...interface{}) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	n, err := r.count(ctx, fmt.Sprintf(`SELECT COUNT(1) FROM %s WHERE %s = ?`, table, keyColumn), key)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.ErrNotFound
	}
	return apperrors.ErrConflict
}

// execDelete removes one row. Rows still referenced elsewhere yield ErrInUse.
func (r *SQLRepository) execDelete(ctx context.Context, query string, args ...interface{}) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperrors.ErrInUse
		}
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23503"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		if liteErr.Code != sqlite3.ErrConstraint {
			return false
		}
		// Immediate foreign keys blocking a DELETE report the trigger
		// extended code rather than the foreign key one.
		switch liteErr.ExtendedCode {
		case sqlite3.ErrConstraintForeignKey, sqlite3.ErrConstraintTrigger:
			return true
		}
		return strings.Contains(liteErr.Error(), "FOREIGN KEY constraint failed")
	}
	return false
}
