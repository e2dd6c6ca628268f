package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rongwang/property-rental-server/internal/apperrors"
	"github.com/rongwang/property-rental-server/internal/models"
)

// UserFilter narrows a user listing to one column. Column must be one of
// the keys of searchColumns; an empty Column lists everyone.
type UserFilter struct {
	Column string
	Term   string
	Strict bool
}

// searchColumns maps the public search keys to table columns.
var searchColumns = map[string]string{
	"user_id":      "id",
	"first_name":   "first_name",
	"last_name":    "last_name",
	"email":        "email",
	"username":     "username",
	"phone_number": "phone_number",
}

func usernameTaken() error {
	return apperrors.Field("username", "Username is already taken.", "validation_unique")
}

// CreateUser inserts a user as one unit of work: the uniqueness check and
// the insert share a transaction, with the unique index as a backstop for
// concurrent signups. Nothing is left behind on failure.
func (r *SQLRepository) CreateUser(ctx context.Context, user *models.User) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var taken int
	err = tx.GetContext(ctx, &taken, tx.Rebind(`SELECT COUNT(1) FROM users WHERE username = ?`), user.Username)
	if err != nil {
		return err
	}
	if taken > 0 {
		err = usernameTaken()
		return err
	}

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO users (username, first_name, last_name, email, phone_number, password_hash, role, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`
	err = tx.QueryRowxContext(ctx, tx.Rebind(query),
		user.Username, user.FirstName, user.LastName, user.Email,
		user.PhoneNumber, user.PasswordHash, user.Role, user.CreatedAt).Scan(&user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			err = usernameTaken()
		}
		return err
	}

	return tx.Commit()
}

func (r *SQLRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	found, err := r.get(ctx, &user, `SELECT * FROM users WHERE id = ?`, id)
	if err != nil || !found {
		return nil, err
	}
	return &user, nil
}

func (r *SQLRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	found, err := r.get(ctx, &user, `SELECT * FROM users WHERE username = ?`, username)
	if err != nil || !found {
		return nil, err
	}
	return &user, nil
}

// GetUsersByIDs loads several users with a single query.
func (r *SQLRepository) GetUsersByIDs(ctx context.Context, ids []int64) (map[int64]models.User, error) {
	result := make(map[int64]models.User, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query, args, err := sqlx.In(`SELECT * FROM users WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}

	var users []models.User
	if err := r.db.SelectContext(ctx, &users, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	for _, u := range users {
		result[u.ID] = u
	}
	return result, nil
}

func (r *SQLRepository) ListUsersByRole(ctx context.Context, role string) ([]models.User, error) {
	return r.SearchUsers(ctx, role, UserFilter{})
}

// SearchUsers lists users of a role, optionally filtered by one column
// with either exact or case-insensitive substring matching.
func (r *SQLRepository) SearchUsers(ctx context.Context, role string, filter UserFilter) ([]models.User, error) {
	query := `SELECT * FROM users WHERE role = ?`
	args := []interface{}{role}

	if filter.Column != "" {
		column, ok := searchColumns[filter.Column]
		if !ok {
			return nil, fmt.Errorf("unknown search column %q", filter.Column)
		}

		switch {
		case column == "id" && filter.Strict:
			id, err := strconv.ParseInt(filter.Term, 10, 64)
			if err != nil {
				return []models.User{}, nil
			}
			query += ` AND id = ?`
			args = append(args, id)
		case column == "id":
			query += ` AND CAST(id AS TEXT) LIKE ?`
			args = append(args, "%"+filter.Term+"%")
		case filter.Strict:
			query += fmt.Sprintf(` AND %s = ?`, column)
			args = append(args, filter.Term)
		default:
			query += fmt.Sprintf(` AND LOWER(%s) LIKE LOWER(?)`, column)
			args = append(args, "%"+filter.Term+"%")
		}
	}

	query += ` ORDER BY last_name, first_name, id`

	users := []models.User{}
	if err := r.db.SelectContext(ctx, &users, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *SQLRepository) CountUsersByRole(ctx context.Context, role string) (int, error) {
	return r.count(ctx, `SELECT COUNT(1) FROM users WHERE role = ?`, role)
}

// UpdateUser rewrites the profile fields of a user. The role never changes.
func (r *SQLRepository) UpdateUser(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET username = ?, first_name = ?, last_name = ?, email = ?, phone_number = ?, password_hash = ?
		WHERE id = ? AND role = ?
	`
	res, err := r.db.ExecContext(ctx, r.db.Rebind(query),
		user.Username, user.FirstName, user.LastName, user.Email, user.PhoneNumber,
		user.PasswordHash, user.ID, user.Role)
	if err != nil {
		if isUniqueViolation(err) {
			return usernameTaken()
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

func (r *SQLRepository) DeleteUser(ctx context.Context, id int64, role string) error {
	return r.execDelete(ctx, `DELETE FROM users WHERE id = ? AND role = ?`, id, role)
}
