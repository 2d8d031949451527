package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/showflix-scheduler/internal/persistence"
)

// UserRepository implements persistence.UserRepository using SQLite.
type UserRepository struct {
	repository
}

// NewUserRepository creates a new SQLite user repository.
func NewUserRepository(pool *ConnectionPool) *UserRepository {
	return &UserRepository{repository: newRepository(pool)}
}

const userColumns = `user_id, username, password_hash, phone_number, account_type, role, is_admin, created_at, updated_at`

// CreateUser inserts a new user. The caller supplies timestamps; zero values
// default to now.
func (r *UserRepository) CreateUser(ctx context.Context, user persistence.User) error {
	if strings.TrimSpace(user.UserID) == "" || user.PasswordHash == "" {
		return persistence.ErrConstraintViolation
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = user.CreatedAt
	}

	return r.write(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO users (`+userColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			user.UserID,
			user.Username,
			user.PasswordHash,
			user.PhoneNumber,
			user.AccountType,
			user.Role,
			boolToInt(user.IsAdmin),
			formatTime(user.CreatedAt),
			formatTime(user.UpdatedAt),
		)
		return err
	})
}

// UpdateUser rewrites the profile columns of an existing user.
func (r *UserRepository) UpdateUser(ctx context.Context, user persistence.User) error {
	if user.UserID == "" {
		return persistence.ErrNotFound
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = time.Now()
	}

	return r.write(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE users
			SET username = ?, phone_number = ?, account_type = ?, role = ?, is_admin = ?, updated_at = ?
			WHERE user_id = ?`,
			user.Username,
			user.PhoneNumber,
			user.AccountType,
			user.Role,
			boolToInt(user.IsAdmin),
			formatTime(user.UpdatedAt),
			user.UserID,
		)
		if err != nil {
			return err
		}
		_, err = rowsAffected(result, true)
		return err
	})
}

// UpdatePassword replaces the stored password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, userID, passwordHash string, updatedAt time.Time) error {
	if passwordHash == "" {
		return persistence.ErrConstraintViolation
	}
	return r.write(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE users SET password_hash = ?, updated_at = ? WHERE user_id = ?`,
			passwordHash, formatTime(updatedAt), userID,
		)
		if err != nil {
			return err
		}
		_, err = rowsAffected(result, true)
		return err
	})
}

// GetUser retrieves a user by login id.
func (r *UserRepository) GetUser(ctx context.Context, userID string) (persistence.User, error) {
	if userID == "" {
		return persistence.User{}, persistence.ErrNotFound
	}
	row := r.helper.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE user_id = ?`, userID)
	user, err := scanUser(row)
	if err != nil {
		return persistence.User{}, r.mapper.MapError(err)
	}
	return user, nil
}

// ListUsers returns all users ordered by display name then id.
func (r *UserRepository) ListUsers(ctx context.Context) ([]persistence.User, error) {
	rows, err := r.helper.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY username ASC, user_id ASC`)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var users []persistence.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return users, nil
}

// DeleteUser removes a user. Sessions cascade; attendance and hour rows are
// kept as history.
func (r *UserRepository) DeleteUser(ctx context.Context, userID string) error {
	if userID == "" {
		return persistence.ErrNotFound
	}
	return r.write(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM users WHERE user_id = ?`, userID)
		if err != nil {
			return err
		}
		_, err = rowsAffected(result, true)
		return err
	})
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (persistence.User, error) {
	var (
		user                     persistence.User
		isAdmin                  int
		createdAtStr, updatedStr string
	)
	if err := row.Scan(
		&user.UserID,
		&user.Username,
		&user.PasswordHash,
		&user.PhoneNumber,
		&user.AccountType,
		&user.Role,
		&isAdmin,
		&createdAtStr,
		&updatedStr,
	); err != nil {
		return persistence.User{}, err
	}
	user.IsAdmin = isAdmin == 1

	var err error
	if user.CreatedAt, err = parseTime(createdAtStr); err != nil {
		return persistence.User{}, fmt.Errorf("created_at: %w", err)
	}
	if user.UpdatedAt, err = parseTime(updatedStr); err != nil {
		return persistence.User{}, fmt.Errorf("updated_at: %w", err)
	}
	return user, nil
}
