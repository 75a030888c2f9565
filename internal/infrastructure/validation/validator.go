// Package validation wraps go-playground/validator for snapshot records.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/erp/invengine/internal/domain/shared"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Validator checks struct tags on domain records
type Validator struct {
	v *validator.Validate
}

// FieldViolation describes one failed field
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// New creates a Validator. Field names in errors use the json tag and
// decimal.Decimal fields are compared as numbers.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})
	return &Validator{v: v}
}

// Struct validates s. The returned error wraps shared.ErrInvalidInput.
func (v *Validator) Struct(s interface{}) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}
	violations := Violations(err)
	if len(violations) == 0 {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	parts := make([]string, len(violations))
	for i, fv := range violations {
		parts[i] = fv.Field + ": " + fv.Message
	}
	return fmt.Errorf("%w: %s", shared.ErrInvalidInput, strings.Join(parts, "; "))
}

// Violations extracts per-field failures from a validator error
func Violations(err error) []FieldViolation {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}
	out := make([]FieldViolation, 0, len(validationErrors))
	for _, e := range validationErrors {
		out = append(out, FieldViolation{
			Field:   e.Field(),
			Message: message(e),
		})
	}
	return out
}

// message returns a human-readable validation message
func message(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	case "gt":
		return "must be greater than " + e.Param()
	case "lt":
		return "must be less than " + e.Param()
	default:
		return "is invalid"
	}
}
