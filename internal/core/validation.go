// AngelaMos | 2026
// validation.go

package core

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

func FormatValidationError(err error) string {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return "invalid request"
	}

	messages := make([]string, 0, len(validationErrs))
	for _, fe := range validationErrs {
		messages = append(messages, formatFieldError(fe))
	}

	return strings.Join(messages, "; ")
}

func formatFieldError(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "uuid", "uuid4":
		return fmt.Sprintf("%s must be a valid id", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// IsFinite reports whether v is a usable currency or quantity value.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// MaxAmount is the largest value a NUMERIC(12,2) money column holds.
const MaxAmount = 9_999_999_999.99

// ValidAmount reports whether v fits a money column: finite, non-negative,
// at most MaxAmount and with no more than two decimal places.
func ValidAmount(v float64) bool {
	if !IsFinite(v) || v < 0 || v > MaxAmount {
		return false
	}
	cents := v * 100
	return math.Abs(cents-math.Round(cents)) < 1e-3
}

// RequireID rejects identifiers that cannot name a stored row. A malformed
// id is reported as not found rather than leaking a driver error.
func RequireID(op, id string) error {
	if uuid.Validate(id) != nil {
		return fmt.Errorf("%s: malformed id: %w", op, ErrNotFound)
	}
	return nil
}
