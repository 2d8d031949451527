package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/showflix-scheduler/internal/persistence"
)

// ReservationRepository implements persistence.ReservationRepository using SQLite.
type ReservationRepository struct {
	repository
}

// NewReservationRepository creates a new SQLite reservation repository.
func NewReservationRepository(pool *ConnectionPool) *ReservationRepository {
	return &ReservationRepository{repository: newRepository(pool)}
}

const reservationColumns = `id, reservation_date, reservation_time, special_remarks, customer_name,
	people_count, payment_status, contact_info, notes, reservation_status, highlight_type,
	expected_revenue, created_at, updated_at, created_by, updated_by`

// reservationSortColumns maps API sort keys to columns. Anything else sorts
// by creation time.
var reservationSortColumns = map[string]string{
	"createdAt":         "created_at",
	"updatedAt":         "updated_at",
	"reservationDate":   "reservation_date",
	"reservationTime":   "reservation_time",
	"customerName":      "customer_name",
	"peopleCount":       "people_count",
	"reservationStatus": "reservation_status",
	"expectedRevenue":   "expected_revenue",
}

// ListReservations returns every reservation, newest first.
func (r *ReservationRepository) ListReservations(ctx context.Context) ([]persistence.Reservation, error) {
	return r.query(ctx, `SELECT `+reservationColumns+` FROM special_reservations ORDER BY created_at DESC, id DESC`)
}

// GetReservation retrieves one reservation by id.
func (r *ReservationRepository) GetReservation(ctx context.Context, id string) (persistence.Reservation, error) {
	res, err := scanReservation(r.helper.QueryRow(ctx, `SELECT `+reservationColumns+` FROM special_reservations WHERE id = ?`, id))
	if err != nil {
		return persistence.Reservation{}, r.mapper.MapError(err)
	}
	return res, nil
}

// CreateReservation inserts a new reservation.
func (r *ReservationRepository) CreateReservation(ctx context.Context, res persistence.Reservation) error {
	if res.ID == "" {
		return persistence.ErrConstraintViolation
	}
	if res.CreatedAt.IsZero() {
		res.CreatedAt = time.Now()
	}
	if res.UpdatedAt.IsZero() {
		res.UpdatedAt = res.CreatedAt
	}
	return r.write(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO special_reservations (`+reservationColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			res.ID, res.Date, res.Time, res.SpecialRemarks, res.CustomerName,
			nullableInt(res.PeopleCount), res.PaymentStatus, res.ContactInfo, res.Notes,
			defaultString(res.Status, "PENDING"), defaultString(res.Highlight, "NONE"),
			nullableInt64(res.ExpectedRevenue), formatTime(res.CreatedAt), formatTime(res.UpdatedAt),
			res.CreatedBy, res.UpdatedBy,
		)
		return err
	})
}

// UpdateReservation rewrites every mutable column of an existing reservation.
func (r *ReservationRepository) UpdateReservation(ctx context.Context, res persistence.Reservation) error {
	if res.UpdatedAt.IsZero() {
		res.UpdatedAt = time.Now()
	}
	return r.write(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE special_reservations
			SET reservation_date = ?, reservation_time = ?, special_remarks = ?, customer_name = ?,
				people_count = ?, payment_status = ?, contact_info = ?, notes = ?,
				reservation_status = ?, highlight_type = ?, expected_revenue = ?,
				updated_at = ?, updated_by = ?
			WHERE id = ?`,
			res.Date, res.Time, res.SpecialRemarks, res.CustomerName,
			nullableInt(res.PeopleCount), res.PaymentStatus, res.ContactInfo, res.Notes,
			defaultString(res.Status, "PENDING"), defaultString(res.Highlight, "NONE"), nullableInt64(res.ExpectedRevenue),
			formatTime(res.UpdatedAt), res.UpdatedBy, res.ID,
		)
		if err != nil {
			return err
		}
		_, err = rowsAffected(result, true)
		return err
	})
}

// DeleteReservation removes a reservation by id.
func (r *ReservationRepository) DeleteReservation(ctx context.Context, id string) error {
	return r.write(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM special_reservations WHERE id = ?`, id)
		if err != nil {
			return err
		}
		_, err = rowsAffected(result, true)
		return err
	})
}

// PageReservations returns one zero-based page and the total row count.
func (r *ReservationRepository) PageReservations(ctx context.Context, page persistence.PageQuery) ([]persistence.Reservation, int, error) {
	column, ok := reservationSortColumns[page.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if strings.EqualFold(page.SortDir, "asc") {
		direction = "ASC"
	}
	if page.Size <= 0 {
		page.Size = 10
	}
	if page.Page < 0 {
		page.Page = 0
	}

	var total int
	if err := r.helper.QueryRow(ctx, `SELECT COUNT(*) FROM special_reservations`).Scan(&total); err != nil {
		return nil, 0, r.mapper.MapError(err)
	}

	items, err := r.query(ctx, fmt.Sprintf(
		`SELECT %s FROM special_reservations ORDER BY %s %s, id %s LIMIT ? OFFSET ?`,
		reservationColumns, column, direction, direction,
	), page.Size, page.Page*page.Size)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// SearchReservations matches the non-empty filter fields as case-insensitive
// substrings, except Status which must match exactly. Results are newest first.
func (r *ReservationRepository) SearchReservations(ctx context.Context, filter persistence.ReservationFilter) ([]persistence.Reservation, error) {
	var (
		clauses []string
		args    []any
	)
	like := func(column, value string) {
		if value = strings.TrimSpace(value); value != "" {
			clauses = append(clauses, "LOWER("+column+`) LIKE ? ESCAPE '\'`)
			args = append(args, "%"+escapeLike(strings.ToLower(value))+"%")
		}
	}
	like("customer_name", filter.CustomerName)
	like("contact_info", filter.ContactInfo)
	like("special_remarks", filter.SpecialRemarks)
	if status := strings.TrimSpace(filter.Status); status != "" {
		clauses = append(clauses, "reservation_status = ?")
		args = append(args, strings.ToUpper(status))
	}

	query := `SELECT ` + reservationColumns + ` FROM special_reservations`
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY created_at DESC, id DESC`
	return r.query(ctx, query, args...)
}

// ReservationsByStatus returns the reservations in status, newest first.
func (r *ReservationRepository) ReservationsByStatus(ctx context.Context, status string) ([]persistence.Reservation, error) {
	return r.query(ctx, `
		SELECT `+reservationColumns+`
		FROM special_reservations
		WHERE reservation_status = ?
		ORDER BY created_at DESC, id DESC`, status)
}

// UpdateReservations applies change to every id in one transaction and
// reports how many rows existed. Unknown ids are skipped.
func (r *ReservationRepository) UpdateReservations(ctx context.Context, ids []string, change persistence.ReservationChange) (int, error) {
	if len(ids) == 0 || (change.Status == nil && change.Highlight == nil) {
		return 0, nil
	}

	sets := []string{"updated_at = ?", "updated_by = ?"}
	args := []any{formatTime(change.UpdatedAt), change.UpdatedBy}
	if change.Status != nil {
		sets = append(sets, "reservation_status = ?")
		args = append(args, *change.Status)
	}
	if change.Highlight != nil {
		sets = append(sets, "highlight_type = ?")
		args = append(args, *change.Highlight)
	}
	statement := `UPDATE special_reservations SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`

	var updated int
	err := r.write(ctx, func(tx *sql.Tx) error {
		updated = 0
		stmt, err := tx.PrepareContext(ctx, statement)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, id := range ids {
			result, err := stmt.ExecContext(ctx, append(append([]any{}, args...), id)...)
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

func (r *ReservationRepository) query(ctx context.Context, query string, args ...any) ([]persistence.Reservation, error) {
	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var items []persistence.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		items = append(items, res)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return items, nil
}

func scanReservation(row scanner) (persistence.Reservation, error) {
	var (
		res                    persistence.Reservation
		people, revenue        sql.NullInt64
		createdStr, updatedStr string
	)
	if err := row.Scan(
		&res.ID, &res.Date, &res.Time, &res.SpecialRemarks, &res.CustomerName,
		&people, &res.PaymentStatus, &res.ContactInfo, &res.Notes, &res.Status, &res.Highlight,
		&revenue, &createdStr, &updatedStr, &res.CreatedBy, &res.UpdatedBy,
	); err != nil {
		return persistence.Reservation{}, err
	}
	if people.Valid {
		n := int(people.Int64)
		res.PeopleCount = &n
	}
	if revenue.Valid {
		v := revenue.Int64
		res.ExpectedRevenue = &v
	}
	var err error
	if res.CreatedAt, err = parseTime(createdStr); err != nil {
		return persistence.Reservation{}, fmt.Errorf("created_at: %w", err)
	}
	if res.UpdatedAt, err = parseTime(updatedStr); err != nil {
		return persistence.Reservation{}, fmt.Errorf("updated_at: %w", err)
	}
	return res, nil
}

func nullableInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullableInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func defaultString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(value string) string {
	return likeEscaper.Replace(value)
}
