package application

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/example/showflix-scheduler/internal/calendar"
)

var (
	namePattern    = regexp.MustCompile(`^[가-힣a-zA-Z\s]{1,20}$`)
	phonePattern   = regexp.MustCompile(`^[0-9]{10,13}$`)
	contactPattern = regexp.MustCompile(`^[0-9\-+\s()]*$`)
	clockPattern   = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		switch name {
		case "-":
			return ""
		case "":
			return fld.Name
		}
		return name
	})

	rules := map[string]validator.Func{
		"korname": func(fl validator.FieldLevel) bool { return namePattern.MatchString(fl.Field().String()) },
		"phone":   func(fl validator.FieldLevel) bool { return phonePattern.MatchString(fl.Field().String()) },
		"contact": func(fl validator.FieldLevel) bool { return contactPattern.MatchString(fl.Field().String()) },
		"clock":   func(fl validator.FieldLevel) bool { return clockPattern.MatchString(fl.Field().String()) },
		"date":    func(fl validator.FieldLevel) bool { return calendar.ValidDate(fl.Field().String()) },
		"role":    func(fl validator.FieldLevel) bool { return ValidRole(fl.Field().String()) },
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(err)
		}
	}
	return v
}

// validateStruct runs the struct tags of s and converts failures into field errors.
func validateStruct(s any) *ValidationError {
	vErr := &ValidationError{}
	err := validate.Struct(s)
	if err == nil {
		return vErr
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		vErr.add("request", "request is invalid")
		return vErr
	}
	for _, fe := range fieldErrs {
		vErr.add(fe.Field(), validationMessage(fe.Field(), fe.Tag()))
	}
	return vErr
}

// checkVar validates a single value against tag and records message under field on failure.
func checkVar(vErr *ValidationError, field string, value any, tag string) {
	if err := validate.Var(value, tag); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			vErr.add(field, validationMessage(field, fieldErrs[0].Tag()))
			return
		}
		vErr.add(field, field+" is invalid")
	}
}

func validationMessage(field, tag string) string {
	switch tag {
	case "required":
		return field + " is required"
	case "korname":
		return field + " must be 1-20 Korean or English letters"
	case "phone":
		return "phone number must be 10-13 digits"
	case "contact":
		return "contact info is invalid"
	case "clock":
		return "time must use HH:MM"
	case "date":
		return "date must use YYYY-MM-DD"
	case "role":
		return "role is invalid"
	case "max":
		return field + " is too long"
	case "min", "gte":
		return field + " is too small"
	default:
		return field + " is invalid"
	}
}
