package application

import (
	"time"

	"github.com/example/showflix-scheduler/internal/timetable"
)

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID   string
	Username string
	IsAdmin  bool
}

// User represents a staff account exposed by the application services.
type User struct {
	UserID      string
	Username    string
	PhoneNumber string
	AccountType AccountType
	Role        string
	IsAdmin     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// UserInput captures caller provided user attributes. Password is only read
// on creation.
type UserInput struct {
	UserID      string `json:"userid" validate:"required,max=50"`
	Username    string `json:"username" validate:"required,korname"`
	Password    string `json:"-"`
	PhoneNumber string `json:"phoneNumber" validate:"omitempty,phone"`
	AccountType string `json:"accountType"`
	Role        string `json:"role" validate:"omitempty,role"`
	IsAdmin     bool   `json:"admin"`
}

// DirectoryEntry is the reduced user view used by attendee pickers.
type DirectoryEntry struct {
	UserID   string
	UserName string
}

// UserCredentials models the authentication attributes persisted for a user.
type UserCredentials struct {
	User         User
	PasswordHash string
}

// Session represents an authenticated session. TokenHash is the keyed digest
// of the bearer token; the token itself is never stored.
type Session struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}

// AuthenticateParams captures the data required to authenticate a user.
type AuthenticateParams struct {
	UserID   string
	Password string
}

// AuthenticateResult carries the issued bearer token alongside its session.
type AuthenticateResult struct {
	User      User
	Session   Session
	Token     string
	Principal Principal
}

// RefreshSessionResult carries the rotated bearer token.
type RefreshSessionResult struct {
	Session Session
	Token   string
}

// DateSelection is one entry of a staff availability submission.
type DateSelection struct {
	OpenHope bool
}

// AttendeeAssignment sets the role and remarks of one attendee on one date.
type AttendeeAssignment struct {
	Date    string
	UserID  string
	Role    string
	Remarks string
}

// TimeSlot is one cell of the per-date performance grid.
type TimeSlot struct {
	Date      string
	TimeSlot  string
	Theme     string
	Performer string
	Confirmed string
}

// DayStatus summarises the stored time slots of a date.
type DayStatus struct {
	Date      string
	Confirmed bool
	Slots     []TimeSlot
}

// AdminNote is the single shared note shown on the calendar page.
type AdminNote struct {
	ID        string
	Content   string
	UpdatedBy string
	UpdatedAt time.Time
}

// HourEntryInput is a single cell edit of the hour table.
type HourEntryInput struct {
	Date     string
	Username string
	Hours    string
	Remarks  string
}

// HourCellResult is a saved cell with the totals it now contributes to.
type HourCellResult struct {
	Entry       timetable.Entry
	RowTotal    float64
	ColumnTotal float64
	GrandTotal  float64
}

// Reservation is a special (group) booking.
type Reservation struct {
	ID              string
	Date            string
	Time            string
	SpecialRemarks  string
	CustomerName    string
	PeopleCount     *int
	PaymentStatus   string
	ContactInfo     string
	Notes           string
	Status          ReservationStatus
	Highlight       HighlightType
	ExpectedRevenue *int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
	CreatedBy       string
	UpdatedBy       string
}

// ReservationInput carries caller supplied reservation fields. Nil pointers
// leave the stored value untouched on update.
type ReservationInput struct {
	Date            *string
	Time            *string
	SpecialRemarks  *string
	CustomerName    *string
	PeopleCount     *int
	PaymentStatus   *string
	ContactInfo     *string
	Notes           *string
	Status          *string
	Highlight       *string
	ExpectedRevenue *int64
}

// ReservationSearch holds optional substring criteria; empty fields are ignored.
type ReservationSearch struct {
	CustomerName   string
	ContactInfo    string
	SpecialRemarks string
	Status         string
}

// PageRequest describes a page of the reservation list. Page is zero based.
type PageRequest struct {
	Page    int
	Size    int
	SortBy  string
	SortDir string
}

// ReservationPage is one page of reservations plus paging metadata.
type ReservationPage struct {
	Content       []Reservation
	Page          int
	Size          int
	TotalElements int
	TotalPages    int
	First         bool
	Last          bool
	HasNext       bool
	HasPrevious   bool
}

// ReservationStatistics aggregates counts and expected revenue per status.
type ReservationStatistics struct {
	Total            int
	Pending          int
	Confirmed        int
	Completed        int
	Cancelled        int
	TotalRevenue     int64
	PendingRevenue   int64
	ConfirmedRevenue int64
	CompletedRevenue int64
}

// BatchUpdateParams changes status and/or highlight for several reservations.
type BatchUpdateParams struct {
	IDs       []string
	Status    *string
	Highlight *string
}

// WorkLog is a free-form daily operations log.
type WorkLog struct {
	ID           string
	Date         string
	Manager      string
	CashPayment  string
	Reservations string
	Event        string
	StoreRelated string
	Notes        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
