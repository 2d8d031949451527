package persistence

import (
	"context"
	"time"
)

// UserRepository exposes CRUD operations for staff accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	// UpdateUser rewrites profile fields; the password hash is left untouched.
	UpdateUser(ctx context.Context, user User) error
	UpdatePassword(ctx context.Context, userID, passwordHash string, updatedAt time.Time) error
	GetUser(ctx context.Context, userID string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	DeleteUser(ctx context.Context, userID string) error
}

// SessionRepository stores authentication session state keyed by token hash.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, tokenHash string) (Session, error)
	UpdateSession(ctx context.Context, session Session) (Session, error)
	RevokeSession(ctx context.Context, tokenHash string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}

// SelectionRepository stores attendance rows. Dates are YYYY-MM-DD strings and
// ranges are inclusive.
type SelectionRepository interface {
	ListSelections(ctx context.Context, from, to string) ([]Selection, error)
	UpsertSelections(ctx context.Context, selections []Selection) error
	DeleteSelection(ctx context.Context, date, userID string) (bool, error)
	UpdateAssignments(ctx context.Context, assignments []Assignment) (int, error)
	ConfirmedDates(ctx context.Context, dates []string) (map[string]bool, error)
}

// TimeSlotRepository stores the per-date slot grid.
type TimeSlotRepository interface {
	ListTimeSlots(ctx context.Context, date string) ([]TimeSlot, error)
	ReplaceTimeSlots(ctx context.Context, date string, slots []TimeSlot) error
	// SetConfirmation writes value to the slots and the attendance rows of
	// date in one transaction.
	SetConfirmation(ctx context.Context, date, value string) error
}

// NoteRepository stores shared notes.
type NoteRepository interface {
	GetNote(ctx context.Context, id string) (Note, error)
	SaveNote(ctx context.Context, note Note) (Note, error)
}

// HourRepository stores hour table cells.
type HourRepository interface {
	ListHours(ctx context.Context, from, to string) ([]HourEntry, error)
	ListHoursForUser(ctx context.Context, username, from, to string) ([]HourEntry, error)
	UpsertHours(ctx context.Context, entries []HourEntry) error
	DeleteHours(ctx context.Context, date, username string) (bool, error)
	UpdateDailyRemarks(ctx context.Context, date, remarks string) (int, error)
}

// ReservationRepository stores special reservations.
type ReservationRepository interface {
	ListReservations(ctx context.Context) ([]Reservation, error)
	GetReservation(ctx context.Context, id string) (Reservation, error)
	CreateReservation(ctx context.Context, reservation Reservation) error
	UpdateReservation(ctx context.Context, reservation Reservation) error
	DeleteReservation(ctx context.Context, id string) error
	PageReservations(ctx context.Context, query PageQuery) ([]Reservation, int, error)
	SearchReservations(ctx context.Context, filter ReservationFilter) ([]Reservation, error)
	ReservationsByStatus(ctx context.Context, status string) ([]Reservation, error)
	UpdateReservations(ctx context.Context, ids []string, change ReservationChange) (int, error)
}

// WorkLogRepository stores daily work logs.
type WorkLogRepository interface {
	ListWorkLogs(ctx context.Context, from, to string) ([]WorkLog, error)
	GetWorkLog(ctx context.Context, id string) (WorkLog, error)
	CreateWorkLog(ctx context.Context, log WorkLog) error
	UpdateWorkLog(ctx context.Context, log WorkLog) error
	DeleteWorkLog(ctx context.Context, id string) error
}
