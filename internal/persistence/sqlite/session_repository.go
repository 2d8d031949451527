package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/showflix-scheduler/internal/persistence"
)

// SessionRepository implements persistence.SessionRepository using SQLite.
type SessionRepository struct {
	repository
}

// NewSessionRepository creates a new SQLite session repository.
func NewSessionRepository(pool *ConnectionPool) *SessionRepository {
	return &SessionRepository{repository: newRepository(pool)}
}

const sessionColumns = `id, user_id, token_hash, expires_at, revoked_at, created_at, updated_at`

// CreateSession stores a new session for a user.
func (r *SessionRepository) CreateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	if session.ID == "" || session.UserID == "" || strings.TrimSpace(session.TokenHash) == "" {
		return persistence.Session{}, persistence.ErrConstraintViolation
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	if session.UpdatedAt.IsZero() {
		session.UpdatedAt = session.CreatedAt
	}

	err := r.write(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO sessions (`+sessionColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			session.ID,
			session.UserID,
			session.TokenHash,
			formatTime(session.ExpiresAt),
			nullableTime(session.RevokedAt),
			formatTime(session.CreatedAt),
			formatTime(session.UpdatedAt),
		)
		return err
	})
	if err != nil {
		return persistence.Session{}, err
	}
	return r.GetSession(ctx, session.TokenHash)
}

// GetSession retrieves a session by its token hash.
func (r *SessionRepository) GetSession(ctx context.Context, tokenHash string) (persistence.Session, error) {
	if strings.TrimSpace(tokenHash) == "" {
		return persistence.Session{}, persistence.ErrNotFound
	}
	row := r.helper.QueryRow(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE token_hash = ?`, tokenHash)
	session, err := scanSession(row)
	if err != nil {
		return persistence.Session{}, r.mapper.MapError(err)
	}
	return session, nil
}

// UpdateSession rewrites the token hash, expiry and revocation of the session
// with the same ID. User and creation time are immutable.
func (r *SessionRepository) UpdateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	if session.ID == "" {
		return persistence.Session{}, persistence.ErrNotFound
	}
	if session.UpdatedAt.IsZero() {
		session.UpdatedAt = time.Now()
	}

	err := r.write(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE sessions
			SET token_hash = ?, expires_at = ?, revoked_at = ?, updated_at = ?
			WHERE id = ?`,
			session.TokenHash,
			formatTime(session.ExpiresAt),
			nullableTime(session.RevokedAt),
			formatTime(session.UpdatedAt),
			session.ID,
		)
		if err != nil {
			return err
		}
		_, err = rowsAffected(result, true)
		return err
	})
	if err != nil {
		return persistence.Session{}, err
	}
	return r.GetSession(ctx, session.TokenHash)
}

// RevokeSession marks the session revoked. Revoking twice keeps the first
// revocation time.
func (r *SessionRepository) RevokeSession(ctx context.Context, tokenHash string, revokedAt time.Time) (persistence.Session, error) {
	if strings.TrimSpace(tokenHash) == "" {
		return persistence.Session{}, persistence.ErrNotFound
	}

	err := r.write(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE sessions
			SET revoked_at = COALESCE(revoked_at, ?), updated_at = ?
			WHERE token_hash = ?`,
			formatTime(revokedAt), formatTime(revokedAt), tokenHash,
		)
		if err != nil {
			return err
		}
		_, err = rowsAffected(result, true)
		return err
	})
	if err != nil {
		return persistence.Session{}, err
	}
	return r.GetSession(ctx, tokenHash)
}

// DeleteExpiredSessions removes sessions that expired at or before reference.
func (r *SessionRepository) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	return r.write(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, formatTime(reference))
		return err
	})
}

func scanSession(row scanner) (persistence.Session, error) {
	var (
		session                                  persistence.Session
		expiresAtStr, createdAtStr, updatedAtStr string
		revokedAt                                sql.NullString
	)
	if err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.TokenHash,
		&expiresAtStr,
		&revokedAt,
		&createdAtStr,
		&updatedAtStr,
	); err != nil {
		return persistence.Session{}, err
	}

	var err error
	if session.ExpiresAt, err = parseTime(expiresAtStr); err != nil {
		return persistence.Session{}, fmt.Errorf("expires_at: %w", err)
	}
	if session.CreatedAt, err = parseTime(createdAtStr); err != nil {
		return persistence.Session{}, fmt.Errorf("created_at: %w", err)
	}
	if session.UpdatedAt, err = parseTime(updatedAtStr); err != nil {
		return persistence.Session{}, fmt.Errorf("updated_at: %w", err)
	}
	if revokedAt.Valid {
		t, err := parseTime(revokedAt.String)
		if err != nil {
			return persistence.Session{}, fmt.Errorf("revoked_at: %w", err)
		}
		session.RevokedAt = &t
	}
	return session, nil
}
