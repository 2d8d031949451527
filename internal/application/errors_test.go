package application

import (
	"fmt"
	"testing"
)

func TestValidationError_Error(t *testing.T) {
	t.Parallel()

	var err *ValidationError
	if err.Error() != "" {
		t.Fatalf("expected empty string for nil error, got %q", err.Error())
	}

	withFields := &ValidationError{FieldErrors: map[string]string{"field": "invalid"}}
	if got := withFields.Error(); got != "validation failed" {
		t.Fatalf("expected consistent message for populated error, got %q", got)
	}
}

func TestValidationError_AddAndMerge(t *testing.T) {
	t.Parallel()

	base := &ValidationError{}
	if base.errOrNil() != nil {
		t.Fatal("expected nil error for empty validation result")
	}

	base.add("first", "value")
	base.add("first", "ignored")
	if got := base.FieldErrors["first"]; got != "value" {
		t.Fatalf("expected first message to win, got %q", got)
	}

	other := &ValidationError{FieldErrors: map[string]string{"second": "another"}}
	base.merge(other)
	base.merge(nil)
	if len(base.FieldErrors) != 2 || base.FieldErrors["second"] != "another" {
		t.Fatalf("unexpected merge result %#v", base.FieldErrors)
	}
	if base.errOrNil() == nil {
		t.Fatal("expected populated validation result to be an error")
	}
}

func TestErrorKind(t *testing.T) {
	t.Parallel()

	cases := map[error]string{
		nil:                                  "",
		ErrUnauthorized:                      "unauthorized",
		fmt.Errorf("wrap: %w", ErrNotFound):  "not_found",
		ErrAlreadyExists:                     "already_exists",
		ErrScheduleConfirmed:                 "schedule_confirmed",
		ErrSelfDeletion:                      "self_deletion",
		ErrSelfDemotion:                      "self_demotion",
		ErrInvalidSlip:                       "invalid_slip",
		ErrSlipFontMissing:                   "slip_font_missing",
		&ValidationError{}:                   "validation",
		fmt.Errorf("boom"):                   "unexpected",
	}
	for err, want := range cases {
		if got := ErrorKind(err); got != want {
			t.Fatalf("ErrorKind(%v) = %q, want %q", err, got, want)
		}
	}
}
