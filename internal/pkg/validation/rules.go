package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/eduserv/ledger/internal/pkg/apperrors"
	"github.com/eduserv/ledger/internal/pkg/money"
)

// Length bounds shared by every free-text field.
var (
	NameMaxLength        = 100
	ContactMaxLength     = 255
	DescriptionMaxLength = 1000
)

// StringValidation checks a single free-text field.
type StringValidation struct {
	Field    string
	Value    string
	MaxLen   int
	Required bool
}

// NewStringValidation creates a required string validation for field
func NewStringValidation(field, value string) *StringValidation {
	return &StringValidation{
		Field:    field,
		Value:    value,
		Required: true,
	}
}

// WithMaxLength sets the maximum length in runes
func (v *StringValidation) WithMaxLength(max int) *StringValidation {
	v.MaxLen = max
	return v
}

// WithRequired sets if field is required
func (v *StringValidation) WithRequired(required bool) *StringValidation {
	v.Required = required
	return v
}

// Validate returns a field-level validation error or nil.
func (v *StringValidation) Validate() error {
	trimmed := strings.TrimSpace(v.Value)
	if v.Required && trimmed == "" {
		return apperrors.NewValidationError(v.Field, v.Field+" is required")
	}
	if v.MaxLen > 0 && utf8.RuneCountInString(trimmed) > v.MaxLen {
		return apperrors.NewValidationError(v.Field, fmt.Sprintf("%s must be at most %d characters", v.Field, v.MaxLen))
	}
	return nil
}

// PositiveAmount rejects zero, negative and above-cap amounts.
func PositiveAmount(field string, amount money.Amount) error {
	if !amount.IsPositive() {
		return apperrors.NewValidationError(field, field+" must be greater than zero")
	}
	if amount > money.MaxAmount {
		return apperrors.NewValidationError(field, fmt.Sprintf("%s must be at most %s", field, money.MaxAmount))
	}
	return nil
}

// PositiveID rejects unset identifiers.
func PositiveID(field string, id int64) error {
	if id <= 0 {
		return apperrors.NewValidationError(field, field+" is required")
	}
	return nil
}

// First returns the first non-nil error, in argument order.
func First(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
