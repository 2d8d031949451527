package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/showflix-scheduler/internal/persistence"
)

// WorkLogRepository implements persistence.WorkLogRepository using SQLite.
type WorkLogRepository struct {
	repository
}

// NewWorkLogRepository creates a new SQLite work log repository.
func NewWorkLogRepository(pool *ConnectionPool) *WorkLogRepository {
	return &WorkLogRepository{repository: newRepository(pool)}
}

const workLogColumns = `id, date, manager, cash_payment, reservations, event, store_related, notes, created_at, updated_at`

// ListWorkLogs returns logs dated between from and to inclusive, oldest first.
func (r *WorkLogRepository) ListWorkLogs(ctx context.Context, from, to string) ([]persistence.WorkLog, error) {
	rows, err := r.helper.Query(ctx, `
		SELECT `+workLogColumns+`
		FROM work_logs
		WHERE date BETWEEN ? AND ?
		ORDER BY date ASC, created_at ASC`, from, to)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var logs []persistence.WorkLog
	for rows.Next() {
		log, err := scanWorkLog(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		logs = append(logs, log)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return logs, nil
}

// GetWorkLog retrieves one log by id.
func (r *WorkLogRepository) GetWorkLog(ctx context.Context, id string) (persistence.WorkLog, error) {
	log, err := scanWorkLog(r.helper.QueryRow(ctx, `SELECT `+workLogColumns+` FROM work_logs WHERE id = ?`, id))
	if err != nil {
		return persistence.WorkLog{}, r.mapper.MapError(err)
	}
	return log, nil
}

// CreateWorkLog inserts a new log.
func (r *WorkLogRepository) CreateWorkLog(ctx context.Context, log persistence.WorkLog) error {
	if log.ID == "" {
		return persistence.ErrConstraintViolation
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}
	if log.UpdatedAt.IsZero() {
		log.UpdatedAt = log.CreatedAt
	}
	return r.write(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO work_logs (`+workLogColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			log.ID, log.Date, log.Manager, log.CashPayment, log.Reservations, log.Event,
			log.StoreRelated, log.Notes, formatTime(log.CreatedAt), formatTime(log.UpdatedAt),
		)
		return err
	})
}

// UpdateWorkLog rewrites the editable columns of an existing log.
func (r *WorkLogRepository) UpdateWorkLog(ctx context.Context, log persistence.WorkLog) error {
	if log.UpdatedAt.IsZero() {
		log.UpdatedAt = time.Now()
	}
	return r.write(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE work_logs
			SET date = ?, manager = ?, cash_payment = ?, reservations = ?, event = ?,
				store_related = ?, notes = ?, updated_at = ?
			WHERE id = ?`,
			log.Date, log.Manager, log.CashPayment, log.Reservations, log.Event,
			log.StoreRelated, log.Notes, formatTime(log.UpdatedAt), log.ID,
		)
		if err != nil {
			return err
		}
		_, err = rowsAffected(result, true)
		return err
	})
}

// DeleteWorkLog removes a log by id.
func (r *WorkLogRepository) DeleteWorkLog(ctx context.Context, id string) error {
	return r.write(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM work_logs WHERE id = ?`, id)
		if err != nil {
			return err
		}
		_, err = rowsAffected(result, true)
		return err
	})
}

func scanWorkLog(row scanner) (persistence.WorkLog, error) {
	var (
		log                    persistence.WorkLog
		createdStr, updatedStr string
	)
	if err := row.Scan(
		&log.ID, &log.Date, &log.Manager, &log.CashPayment, &log.Reservations, &log.Event,
		&log.StoreRelated, &log.Notes, &createdStr, &updatedStr,
	); err != nil {
		return persistence.WorkLog{}, err
	}
	var err error
	if log.CreatedAt, err = parseTime(createdStr); err != nil {
		return persistence.WorkLog{}, fmt.Errorf("created_at: %w", err)
	}
	if log.UpdatedAt, err = parseTime(updatedStr); err != nil {
		return persistence.WorkLog{}, fmt.Errorf("updated_at: %w", err)
	}
	return log, nil
}
