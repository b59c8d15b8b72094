package validate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// v is the package-level singleton validator. Custom registrations belong in
// init() before the first call to Struct.
var v = validator.New()

// FieldError describes one failed constraint.
type FieldError struct {
	Field string
	Tag   string
}

// Errors is returned by Struct when one or more constraints fail.
type Errors []FieldError

func (e Errors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, fe := range e {
		msgs = append(msgs, fmt.Sprintf("field '%s' failed '%s'", fe.Field, fe.Tag))
	}
	return strings.Join(msgs, "; ")
}

// Has reports whether any failure carries the given tag.
func (e Errors) Has(tag string) bool {
	for _, fe := range e {
		if fe.Tag == tag {
			return true
		}
	}
	return false
}

// Struct validates the given struct using its validate tags.
func Struct(s interface{}) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	out := make(Errors, 0, len(ve))
	for _, fe := range ve {
		out = append(out, FieldError{Field: fe.Field(), Tag: fe.Tag()})
	}
	return out
}

// MissingRequired reports whether err is a validation failure caused by an
// absent required field.
func MissingRequired(err error) bool {
	var errs Errors
	return errors.As(err, &errs) && errs.Has("required")
}
