package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/example/showflix-scheduler/internal/persistence"
)

// SelectionRepository implements persistence.SelectionRepository using SQLite.
type SelectionRepository struct {
	repository
}

// NewSelectionRepository creates a new SQLite attendance repository.
func NewSelectionRepository(pool *ConnectionPool) *SelectionRepository {
	return &SelectionRepository{repository: newRepository(pool)}
}

// ListSelections returns the rows between from and to inclusive, ordered by
// date then user id.
func (r *SelectionRepository) ListSelections(ctx context.Context, from, to string) ([]persistence.Selection, error) {
	rows, err := r.helper.Query(ctx, `
		SELECT date, user_id, user_name, open_hope, role, remarks, confirmed
		FROM selected_dates
		WHERE date BETWEEN ? AND ?
		ORDER BY date ASC, user_id ASC`, from, to)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var selections []persistence.Selection
	for rows.Next() {
		var (
			s        persistence.Selection
			openHope int
		)
		if err := rows.Scan(&s.Date, &s.UserID, &s.UserName, &openHope, &s.Role, &s.Remarks, &s.Confirmed); err != nil {
			return nil, r.mapper.MapError(err)
		}
		s.OpenHope = openHope == 1
		selections = append(selections, s)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return selections, nil
}

// UpsertSelections inserts or refreshes every row in one transaction. An
// empty role or remarks keeps the value already assigned to the row.
func (r *SelectionRepository) UpsertSelections(ctx context.Context, selections []persistence.Selection) error {
	if len(selections) == 0 {
		return nil
	}
	return r.write(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO selected_dates (date, user_id, user_name, open_hope, role, remarks, confirmed)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (date, user_id) DO UPDATE SET
				user_name = excluded.user_name,
				open_hope = excluded.open_hope,
				role = CASE WHEN excluded.role <> '' THEN excluded.role ELSE selected_dates.role END,
				remarks = CASE WHEN excluded.remarks <> '' THEN excluded.remarks ELSE selected_dates.remarks END,
				confirmed = excluded.confirmed`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, s := range selections {
			confirmed := s.Confirmed
			if confirmed == "" {
				confirmed = "N"
			}
			if _, err := stmt.ExecContext(ctx, s.Date, s.UserID, s.UserName, boolToInt(s.OpenHope), s.Role, s.Remarks, confirmed); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteSelection removes one row and reports whether it existed.
func (r *SelectionRepository) DeleteSelection(ctx context.Context, date, userID string) (bool, error) {
	var removed int
	err := r.write(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM selected_dates WHERE date = ? AND user_id = ?`, date, userID)
		if err != nil {
			return err
		}
		removed, err = rowsAffected(result, false)
		return err
	})
	return removed > 0, err
}

// UpdateAssignments sets role and remarks on existing rows in one transaction
// and reports how many rows matched. Missing rows are skipped.
func (r *SelectionRepository) UpdateAssignments(ctx context.Context, assignments []persistence.Assignment) (int, error) {
	if len(assignments) == 0 {
		return 0, nil
	}
	var updated int
	err := r.write(ctx, func(tx *sql.Tx) error {
		updated = 0
		stmt, err := tx.PrepareContext(ctx, `UPDATE selected_dates SET role = ?, remarks = ? WHERE date = ? AND user_id = ?`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, a := range assignments {
			result, err := stmt.ExecContext(ctx, a.Role, a.Remarks, a.Date, a.UserID)
			if err != nil {
				return err
			}
			n, err := rowsAffected(result, false)
			if err != nil {
				return err
			}
			updated += n
		}
		return nil
	})
	return updated, err
}

// ConfirmedDates reports, for each requested date, whether any attendance row
// or time slot of that date is confirmed. Dates with no rows are absent.
func (r *SelectionRepository) ConfirmedDates(ctx context.Context, dates []string) (map[string]bool, error) {
	confirmed := make(map[string]bool, len(dates))
	if len(dates) == 0 {
		return confirmed, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(dates)), ",")
	args := make([]any, 0, len(dates)*2)
	for _, d := range dates {
		args = append(args, d)
	}
	for _, d := range dates {
		args = append(args, d)
	}

	rows, err := r.helper.Query(ctx, `
		SELECT date FROM selected_dates WHERE confirmed = 'Y' AND date IN (`+placeholders+`)
		UNION
		SELECT date FROM time_slots WHERE confirmed = 'Y' AND date IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	for rows.Next() {
		var date string
		if err := rows.Scan(&date); err != nil {
			return nil, r.mapper.MapError(err)
		}
		confirmed[date] = true
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return confirmed, nil
}
