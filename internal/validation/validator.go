// Package validation checks mark payloads using the validator/v10 library and
// converts field failures into the standard error types.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mesh-intelligence/markable/pkg/types"
)

// Validator wraps go-playground/validator with error conversion.
type Validator struct {
	v *validator.Validate
}

// New creates a validator that reports fields by their JSON names.
func New() *Validator {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	return &Validator{v: v}
}

// Mark validates a mark before it is written. Failures wrap
// types.ErrInvalidData and list every offending field.
func (v *Validator) Mark(m *types.Mark) error {
	if m == nil {
		return fmt.Errorf("%w: nil mark", types.ErrInvalidData)
	}
	if err := v.v.Struct(m); err != nil {
		return v.formatError(types.ErrInvalidData, err)
	}
	return nil
}

// Label validates a single mark label. Failures wrap types.ErrInvalidLabel.
func (v *Validator) Label(label string) error {
	tag := fmt.Sprintf("required,max=%d", types.MaxLabelLength)
	if err := v.v.Var(label, tag); err != nil {
		return fmt.Errorf("%w %q: %s", types.ErrInvalidLabel, label, v.firstMessage(err))
	}
	return nil
}

func (v *Validator) firstMessage(err error) string {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) || len(validationErrs) == 0 {
		return err.Error()
	}
	return friendlyMessage(validationErrs[0])
}

// formatError converts validator errors into a single error wrapping kind.
func (v *Validator) formatError(kind, err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return fmt.Errorf("%w: %v", kind, err)
	}

	fields := make([]string, 0, len(validationErrs))
	for _, e := range validationErrs {
		fields = append(fields, fieldName(e)+" "+friendlyMessage(e))
	}
	sort.Strings(fields)

	return fmt.Errorf("%w: %s", kind, strings.Join(fields, "; "))
}

// fieldName drops the root struct name from the namespace, so a nested
// reference reads "marker.id".
func fieldName(e validator.FieldError) string {
	ns := e.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must not exceed %s characters", e.Param())
	case "min":
		return fmt.Sprintf("must be at least %s characters", e.Param())
	default:
		return "is invalid"
	}
}
