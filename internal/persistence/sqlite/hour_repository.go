package sqlite

import (
	"context"
	"database/sql"

	"github.com/example/showflix-scheduler/internal/persistence"
)

// HourRepository implements persistence.HourRepository using SQLite.
type HourRepository struct {
	repository
}

// NewHourRepository creates a new SQLite hour table repository.
func NewHourRepository(pool *ConnectionPool) *HourRepository {
	return &HourRepository{repository: newRepository(pool)}
}

// ListHours returns every cell between from and to inclusive.
func (r *HourRepository) ListHours(ctx context.Context, from, to string) ([]persistence.HourEntry, error) {
	return r.list(ctx, `
		SELECT date, username, hours, remarks
		FROM schedule_hours
		WHERE date BETWEEN ? AND ?
		ORDER BY date ASC, username ASC`, from, to)
}

// ListHoursForUser returns the cells of one actor between from and to inclusive.
func (r *HourRepository) ListHoursForUser(ctx context.Context, username, from, to string) ([]persistence.HourEntry, error) {
	return r.list(ctx, `
		SELECT date, username, hours, remarks
		FROM schedule_hours
		WHERE username = ? AND date BETWEEN ? AND ?
		ORDER BY date ASC`, username, from, to)
}

func (r *HourRepository) list(ctx context.Context, query string, args ...any) ([]persistence.HourEntry, error) {
	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var entries []persistence.HourEntry
	for rows.Next() {
		var e persistence.HourEntry
		if err := rows.Scan(&e.Date, &e.Username, &e.Hours, &e.Remarks); err != nil {
			return nil, r.mapper.MapError(err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return entries, nil
}

// UpsertHours writes all entries in one transaction; one rejected row rolls
// back the batch.
func (r *HourRepository) UpsertHours(ctx context.Context, entries []persistence.HourEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return r.write(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO schedule_hours (date, username, hours, remarks)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (date, username) DO UPDATE SET
				hours = excluded.hours,
				remarks = excluded.remarks`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, e := range entries {
			if _, err := stmt.ExecContext(ctx, e.Date, e.Username, e.Hours, e.Remarks); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteHours removes one cell and reports whether it existed.
func (r *HourRepository) DeleteHours(ctx context.Context, date, username string) (bool, error) {
	var removed int
	err := r.write(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM schedule_hours WHERE date = ? AND username = ?`, date, username)
		if err != nil {
			return err
		}
		removed, err = rowsAffected(result, false)
		return err
	})
	return removed > 0, err
}

// UpdateDailyRemarks sets the remarks of every cell of date.
func (r *HourRepository) UpdateDailyRemarks(ctx context.Context, date, remarks string) (int, error) {
	var updated int
	err := r.write(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `UPDATE schedule_hours SET remarks = ? WHERE date = ?`, remarks, date)
		if err != nil {
			return err
		}
		updated, err = rowsAffected(result, false)
		return err
	})
	return updated, err
}
