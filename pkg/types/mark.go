package types

import (
	"fmt"
	"strings"
	"time"
)

// MaxLabelLength bounds the length of a mark label, matching the width of the
// mark column.
const MaxLabelLength = 128

// Ref is a polymorphic reference: a type identifier plus an instance
// identifier. It lets one relation point at instances of different types.
type Ref struct {
	Type string `json:"type" validate:"required"`
	ID   string `json:"id" validate:"required"`
}

// String renders the reference as "type:id".
func (r Ref) String() string {
	return r.Type + ":" + r.ID
}

// IsZero reports whether the reference is missing its type or its id.
func (r Ref) IsZero() bool {
	return r.Type == "" || r.ID == ""
}

// ParseRef parses a "type:id" string. The id may itself contain colons.
// Returns ErrInvalidRef when either half is empty.
func ParseRef(s string) (Ref, error) {
	typ, id, ok := strings.Cut(s, ":")
	if !ok || typ == "" || id == "" {
		return Ref{}, fmt.Errorf("%w: %q (expected type:id)", ErrInvalidRef, s)
	}
	return Ref{Type: typ, ID: id}, nil
}

// Entity is implemented by host types that take part in marks. MarkRef must
// return the same reference for the lifetime of the record.
type Entity interface {
	MarkRef() Ref
}

// RefOf extracts a reference from an Entity, a Ref or a *Ref. Any other value
// is not an entity and yields false.
func RefOf(v any) (Ref, bool) {
	switch e := v.(type) {
	case nil:
		return Ref{}, false
	case Ref:
		return e, !e.IsZero()
	case *Ref:
		if e == nil {
			return Ref{}, false
		}
		return *e, !e.IsZero()
	case Entity:
		r := e.MarkRef()
		return r, !r.IsZero()
	default:
		return Ref{}, false
	}
}

// describe names a value for error messages: the declared type of an entity,
// or the Go type of anything else.
func describe(v any) string {
	if r, ok := RefOf(v); ok {
		return r.Type
	}
	if s, ok := v.(string); ok {
		return fmt.Sprintf("string(%q)", s)
	}
	return fmt.Sprintf("%T", v)
}

// Mark is a single label applied by a marker to a markable.
type Mark struct {
	// MarkID is a UUID v7, generated by the store on insert.
	MarkID string `json:"mark_id"`

	// Marker is the entity applying the mark.
	Marker Ref `json:"marker"`

	// Markable is the entity being marked.
	Markable Ref `json:"markable"`

	// Label is the kind of mark, e.g. "favorite".
	Label string `json:"mark" validate:"required,max=128"`

	// CreatedAt is the timestamp of creation.
	CreatedAt time.Time `json:"created_at"`
}

// Matches reports whether m carries the given marker, markable and label.
func (m *Mark) Matches(marker, markable Ref, label string) bool {
	return m.Marker == marker && m.Markable == markable && m.Label == label
}
