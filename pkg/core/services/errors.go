package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError reports a command rejected before any store write
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

func newValidationError(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err, or anything it wraps, is a ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateCommand runs struct tag validation and converts the first failure into a ValidationError
func validateCommand(cmd any) error {
	err := validate.Struct(cmd)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("failed to validate command: %w", err)
	}

	fe := fieldErrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return newValidationError(field, "is required")
	case "min":
		return newValidationError(field, "must be at least %s", fe.Param())
	case "max":
		return newValidationError(field, "must be at most %s", fe.Param())
	case "nefield":
		return newValidationError(field, "must differ from %s", fe.Param())
	}
	return newValidationError(field, "failed %s validation", strings.ToLower(fe.Tag()))
}
