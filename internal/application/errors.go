package application

import (
	"errors"

	"github.com/example/showflix-scheduler/internal/persistence"
)

var (
	// ErrUnauthorized is returned when the acting principal lacks permission for an operation.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when a resource with the same identifier is already stored.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrInvalidCredentials is returned for unknown user ids, wrong passwords and unknown tokens.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrSessionExpired is returned when a session token is past its expiry.
	ErrSessionExpired = errors.New("application: session expired")
	// ErrSessionRevoked is returned when a session token was revoked by logout or rotation.
	ErrSessionRevoked = errors.New("application: session revoked")
	// ErrScheduleConfirmed is returned when attendance for a confirmed date is modified.
	ErrScheduleConfirmed = errors.New("application: schedule already confirmed")
	// ErrSelfDeletion is returned when an administrator tries to delete their own account.
	ErrSelfDeletion = errors.New("application: cannot delete own account")
	// ErrSelfDemotion is returned when an administrator removes their own admin flag.
	ErrSelfDemotion = errors.New("application: cannot remove own admin rights")
	// ErrInvalidSlip is returned when a scanned slip payload is forged or no longer matches its reservation.
	ErrInvalidSlip = errors.New("application: invalid reservation slip")
	// ErrSlipFontMissing is returned when a slip holds text the built-in PDF font cannot print.
	ErrSlipFontMissing = errors.New("application: slip font not configured")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error. The first message per field wins.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	if _, exists := v.FieldErrors[field]; exists {
		return
	}
	v.FieldErrors[field] = message
}

// merge copies entries from another validation error into the receiver.
func (v *ValidationError) merge(other *ValidationError) {
	if other == nil || len(other.FieldErrors) == 0 {
		return
	}
	for field, msg := range other.FieldErrors {
		v.add(field, msg)
	}
}

// errOrNil converts an empty validation result into a nil error so callers can
// return it directly.
func (v *ValidationError) errOrNil() error {
	if v.HasErrors() {
		return v
	}
	return nil
}

// mapRepoError translates storage sentinels into application errors.
func mapRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		return ErrAlreadyExists
	case errors.Is(err, persistence.ErrForeignKeyViolation):
		return ErrNotFound
	case errors.Is(err, persistence.ErrConstraintViolation):
		vErr := &ValidationError{}
		vErr.add("request", "request is invalid")
		return vErr
	}
	return err
}
