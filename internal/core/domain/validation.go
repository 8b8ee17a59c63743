package domain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report violations under the JSON names clients send.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterValidation("cents", func(fl validator.FieldLevel) bool {
		p := fl.Field().Float()
		return NormalizePrice(p) == p
	})
	return v
}

// FieldViolation describes one broken constraint.
type FieldViolation struct {
	Field   string
	Message string
}

// ValidationError is returned when a request, or a patched representation,
// breaks the field constraints. It never wraps a storage failure.
type ValidationError struct {
	Violations []FieldViolation
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Violations: []FieldViolation{{Field: field, Message: message}}}
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+v.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Fields groups messages by field, preserving the order they were reported in.
func (e *ValidationError) Fields() map[string][]string {
	out := make(map[string][]string, len(e.Violations))
	for _, v := range e.Violations {
		out[v.Field] = append(out[v.Field], v.Message)
	}
	return out
}

// Validate checks a create or update representation against the field
// constraints. It returns nil or a *ValidationError.
func Validate(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate request: %w", err)
	}

	verr := &ValidationError{Violations: make([]FieldViolation, 0, len(fieldErrs))}
	for _, fe := range fieldErrs {
		verr.Violations = append(verr.Violations, FieldViolation{
			Field:   fe.Field(),
			Message: violationMessage(fe),
		})
	}
	return verr
}

func violationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", fe.StructField())
	case "max":
		return fmt.Sprintf("The field %s must be a string with a maximum length of '%s'.", fe.StructField(), fe.Param())
	case "cents":
		return fmt.Sprintf("%s must have at most %d decimal places", fe.StructField(), PriceScale)
	case "gte", "lte":
		return fmt.Sprintf("%s should be between %d and %d", fe.StructField(), MinPrice, MaxPrice)
	default:
		return fmt.Sprintf("The field %s is invalid.", fe.StructField())
	}
}
