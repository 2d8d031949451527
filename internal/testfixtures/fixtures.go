package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/showflix-scheduler/internal/persistence"
)

var userCounter uint64

var seoul = time.FixedZone("KST", 9*60*60)

// ReferenceTime is the baseline instant fixtures are built around: a Friday
// morning in Seoul.
func ReferenceTime() time.Time {
	return time.Date(2024, time.March, 15, 10, 0, 0, 0, seoul)
}

// UserOption configures a generated user.
type UserOption func(*persistence.User)

// NewUser returns a distinct staff account. Each call uses the next user id.
func NewUser(opts ...UserOption) persistence.User {
	idx := atomic.AddUint64(&userCounter, 1)
	created := ReferenceTime().Add(time.Duration(idx) * time.Minute)
	user := persistence.User{
		UserID:       fmt.Sprintf("user%03d", idx),
		Username:     fmt.Sprintf("배우%03d", idx),
		PasswordHash: fmt.Sprintf("hash-%03d", idx),
		PhoneNumber:  "01012345678",
		AccountType:  "ACTOR",
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	for _, opt := range opts {
		opt(&user)
	}
	return user
}

// WithUserID fixes the login id.
func WithUserID(id string) UserOption {
	return func(u *persistence.User) { u.UserID = id }
}

// WithUsername fixes the display name.
func WithUsername(name string) UserOption {
	return func(u *persistence.User) { u.Username = name }
}

// WithAccountType sets the account type code.
func WithAccountType(code string) UserOption {
	return func(u *persistence.User) { u.AccountType = code }
}

// AsAdmin marks the user as an administrator.
func AsAdmin() UserOption {
	return func(u *persistence.User) {
		u.IsAdmin = true
		u.AccountType = "ADMIN"
	}
}

// ReservationOption configures a generated reservation.
type ReservationOption func(*persistence.Reservation)

// NewReservation returns a pending reservation for two guests with the given id.
func NewReservation(id string, opts ...ReservationOption) persistence.Reservation {
	people := 2
	revenue := int64(100000)
	res := persistence.Reservation{
		ID:              id,
		Date:            "2024-03-20",
		Time:            "19:30",
		CustomerName:    "김민지",
		PeopleCount:     &people,
		PaymentStatus:   "미결제",
		ContactInfo:     "010-1234-5678",
		Status:          "PENDING",
		Highlight:       "NONE",
		ExpectedRevenue: &revenue,
		CreatedAt:       ReferenceTime(),
		UpdatedAt:       ReferenceTime(),
		CreatedBy:       "admin",
		UpdatedBy:       "admin",
	}
	for _, opt := range opts {
		opt(&res)
	}
	return res
}

// WithCustomer sets the customer name and contact.
func WithCustomer(name, contact string) ReservationOption {
	return func(r *persistence.Reservation) {
		r.CustomerName = name
		r.ContactInfo = contact
	}
}

// WithStatus sets the reservation status code.
func WithStatus(status string) ReservationOption {
	return func(r *persistence.Reservation) { r.Status = status }
}

// WithPeople sets the guest count, nil for unknown.
func WithPeople(count *int) ReservationOption {
	return func(r *persistence.Reservation) { r.PeopleCount = count }
}

// CreatedAt sets both timestamps.
func CreatedAt(t time.Time) ReservationOption {
	return func(r *persistence.Reservation) {
		r.CreatedAt = t
		r.UpdatedAt = t
	}
}
