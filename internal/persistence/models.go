package persistence

import "time"

// User is a staff account row. AccountType holds the bare code.
type User struct {
	UserID       string
	Username     string
	PasswordHash string
	PhoneNumber  string
	AccountType  string
	Role         string
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session is a persisted login. Only the keyed hash of the bearer token is stored.
type Session struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}

// Selection is one attendance row keyed by (Date, UserID).
type Selection struct {
	Date      string
	UserID    string
	UserName  string
	OpenHope  bool
	Role      string
	Remarks   string
	Confirmed string
}

// Assignment updates the role and remarks of an existing selection.
type Assignment struct {
	Date    string
	UserID  string
	Role    string
	Remarks string
}

// TimeSlot is one performance slot of a date.
type TimeSlot struct {
	Date      string
	TimeSlot  string
	Theme     string
	Performer string
	Confirmed string
}

// Note is a shared free-text note.
type Note struct {
	ID        string
	Content   string
	UpdatedBy string
	UpdatedAt time.Time
}

// HourEntry is one cell of the hour table keyed by (Date, Username).
type HourEntry struct {
	Date     string
	Username string
	Hours    float64
	Remarks  string
}

// Reservation is a special booking row.
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
	Status          string
	Highlight       string
	ExpectedRevenue *int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
	CreatedBy       string
	UpdatedBy       string
}

// ReservationFilter holds case-insensitive substring criteria. Empty fields
// are ignored and the rest are combined with AND.
type ReservationFilter struct {
	CustomerName   string
	ContactInfo    string
	SpecialRemarks string
	Status         string
}

// PageQuery selects one page of reservations. Page is zero based and SortBy
// must name a sortable column key.
type PageQuery struct {
	Page    int
	Size    int
	SortBy  string
	SortDir string
}

// ReservationChange is a bulk edit. Nil fields are left untouched.
type ReservationChange struct {
	Status    *string
	Highlight *string
	UpdatedBy string
	UpdatedAt time.Time
}

// WorkLog is a daily operations log row.
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
