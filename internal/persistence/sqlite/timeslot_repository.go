package sqlite

import (
	"context"
	"database/sql"

	"github.com/example/showflix-scheduler/internal/persistence"
)

// TimeSlotRepository implements persistence.TimeSlotRepository using SQLite.
type TimeSlotRepository struct {
	repository
}

// NewTimeSlotRepository creates a new SQLite time slot repository.
func NewTimeSlotRepository(pool *ConnectionPool) *TimeSlotRepository {
	return &TimeSlotRepository{repository: newRepository(pool)}
}

// ListTimeSlots returns the slots of date ordered by slot label.
func (r *TimeSlotRepository) ListTimeSlots(ctx context.Context, date string) ([]persistence.TimeSlot, error) {
	rows, err := r.helper.Query(ctx, `
		SELECT date, time_slot, theme, performer, confirmed
		FROM time_slots
		WHERE date = ?
		ORDER BY time_slot ASC`, date)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var slots []persistence.TimeSlot
	for rows.Next() {
		var slot persistence.TimeSlot
		if err := rows.Scan(&slot.Date, &slot.TimeSlot, &slot.Theme, &slot.Performer, &slot.Confirmed); err != nil {
			return nil, r.mapper.MapError(err)
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return slots, nil
}

// ReplaceTimeSlots deletes every slot of date and inserts slots in one
// transaction.
func (r *TimeSlotRepository) ReplaceTimeSlots(ctx context.Context, date string, slots []persistence.TimeSlot) error {
	return r.write(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM time_slots WHERE date = ?`, date); err != nil {
			return err
		}
		if len(slots) == 0 {
			return nil
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO time_slots (date, time_slot, theme, performer, confirmed)
			VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, slot := range slots {
			confirmed := slot.Confirmed
			if confirmed == "" {
				confirmed = "N"
			}
			if _, err := stmt.ExecContext(ctx, date, slot.TimeSlot, slot.Theme, slot.Performer, confirmed); err != nil {
				return err
			}
		}
		return nil
	})
}

// SetConfirmation writes value to the slots and the attendance rows of date
// in one transaction.
func (r *TimeSlotRepository) SetConfirmation(ctx context.Context, date, value string) error {
	if value != "Y" && value != "N" {
		return persistence.ErrConstraintViolation
	}
	return r.write(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `UPDATE time_slots SET confirmed = ? WHERE date = ?`, value, date); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `UPDATE selected_dates SET confirmed = ? WHERE date = ?`, value, date)
		return err
	})
}
