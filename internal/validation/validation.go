// Package validation wraps go-playground/validator with readable messages.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator validates request structs by their `validate` tags
type Validator struct {
	v *validator.Validate
}

// NewValidator creates a new Validator instance
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonName)
	return &Validator{v: v}
}

var std = NewValidator()

// Struct validates s with the package validator
func Struct(s any) error {
	return std.Struct(s)
}

// Struct returns one error listing every failed field, or nil.
func (val *Validator) Struct(s any) error {
	if err := val.v.Struct(s); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			msgs := make([]string, 0, len(ve))
			for _, fe := range ve {
				msgs = append(msgs, fieldError(fe))
			}
			return &Error{Fields: msgs}
		}
		return err
	}
	return nil
}

// Error lists failed fields in struct order
type Error struct {
	Fields []string
}

func (e *Error) Error() string {
	return strings.Join(e.Fields, "; ")
}

func fieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "datetime":
		return fmt.Sprintf("%s must match the layout %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}

// jsonName reports fields by their wire name so messages match what the API
// and the CLI flags call them.
func jsonName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "" || name == "-" {
		return fld.Name
	}
	return name
}
