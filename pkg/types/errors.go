package types

import (
	"errors"
	"fmt"
	"strings"
)

// Mark validation errors. They indicate programmer or configuration mistakes
// and are never transient.
var (
	ErrWrongMarkableType = errors.New("wrong markable type")
	ErrWrongMarkerType   = errors.New("wrong marker type")
	ErrWrongMark         = errors.New("wrong mark")
	ErrNotAllowedMarker  = errors.New("marker not allowed")
)

// Store and lookup errors.
var (
	ErrNotFound      = errors.New("entity not found")
	ErrDuplicateMark = errors.New("mark already exists")
	ErrInvalidRef    = errors.New("invalid reference")
	ErrInvalidLabel  = errors.New("invalid mark label")
	ErrInvalidData   = errors.New("invalid mark data")
	ErrInvalidFilter = errors.New("invalid filter")
	ErrNoResolver    = errors.New("no resolver registered for type")
)

// Registry errors.
var (
	ErrRegistrySealed = errors.New("registry is sealed")
	ErrEmptyTypeID    = errors.New("type identifier must not be empty")
)

// Store lifecycle errors.
var (
	ErrDetached        = errors.New("store is detached")
	ErrAlreadyAttached = errors.New("store is already attached")
)

// IsValidationError reports whether err is one of the four mark validation
// kinds.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrWrongMarkableType) ||
		errors.Is(err, ErrWrongMarkerType) ||
		errors.Is(err, ErrWrongMark) ||
		errors.Is(err, ErrNotAllowedMarker)
}

// MarkError is a validation failure for a (marker, markable, label) request.
// Kind is one of the validation sentinels; errors.Is matches against it.
type MarkError struct {
	Kind     error
	Marker   string   // marker type, or a description of a non-entity value
	Markable string   // markable type, or a description of a non-entity value
	Label    string   // requested label
	Expected []string // valid alternatives for the failing check
}

// Error renders the failure with the list of valid alternatives.
func (e *MarkError) Error() string {
	expected := ""
	if len(e.Expected) > 0 {
		expected = "'" + strings.Join(e.Expected, "', '") + "'"
	}
	switch e.Kind {
	case ErrWrongMarkableType:
		return fmt.Sprintf("wrong markable type: [%s] expected, '%s' provided", expected, e.Markable)
	case ErrWrongMarkerType:
		return fmt.Sprintf("wrong marker type: [%s] expected, '%s' provided", expected, e.Marker)
	case ErrWrongMark:
		return fmt.Sprintf("wrong mark '%s' for '%s'; available marks: [%s]", e.Label, e.Markable, expected)
	case ErrNotAllowedMarker:
		return fmt.Sprintf("marker '%s' is not allowed to mark '%s' with mark '%s'; allowed markers: [%s]",
			e.Marker, e.Markable, e.Label, expected)
	default:
		return fmt.Sprintf("%v: marker '%s', markable '%s', mark '%s'", e.Kind, e.Marker, e.Markable, e.Label)
	}
}

// Unwrap returns the validation sentinel.
func (e *MarkError) Unwrap() error { return e.Kind }

// WrongMarkableType builds an ErrWrongMarkableType failure for value v.
func WrongMarkableType(v any, expected []string) *MarkError {
	return &MarkError{Kind: ErrWrongMarkableType, Markable: describe(v), Expected: expected}
}

// WrongMarkerType builds an ErrWrongMarkerType failure for value v.
func WrongMarkerType(v any, expected []string) *MarkError {
	return &MarkError{Kind: ErrWrongMarkerType, Marker: describe(v), Expected: expected}
}

// WrongMarkableTypeName builds an ErrWrongMarkableType failure for a bare
// type name requested with label.
func WrongMarkableTypeName(markableType, label string, expected []string) *MarkError {
	return &MarkError{Kind: ErrWrongMarkableType, Markable: markableType, Label: label, Expected: expected}
}

// WrongMarkerTypeName builds an ErrWrongMarkerType failure for a bare type
// name requested with label.
func WrongMarkerTypeName(markerType, label string, expected []string) *MarkError {
	return &MarkError{Kind: ErrWrongMarkerType, Marker: markerType, Label: label, Expected: expected}
}

// WrongMark builds an ErrWrongMark failure for a label undeclared on markableType.
func WrongMark(markableType, label string, expected []string) *MarkError {
	return &MarkError{Kind: ErrWrongMark, Markable: markableType, Label: label, Expected: expected}
}

// NotAllowedMarker builds an ErrNotAllowedMarker failure.
func NotAllowedMarker(markerType, markableType, label string, allowed []string) *MarkError {
	return &MarkError{
		Kind:     ErrNotAllowedMarker,
		Marker:   markerType,
		Markable: markableType,
		Label:    label,
		Expected: allowed,
	}
}
