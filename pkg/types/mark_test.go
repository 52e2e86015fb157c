package types

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type user struct{ id string }

func (u *user) MarkRef() Ref { return Ref{Type: "user", ID: u.id} }

func TestParseRef(t *testing.T) {
	tests := []struct {
		in      string
		want    Ref
		wantErr bool
	}{
		{in: "user:1", want: Ref{Type: "user", ID: "1"}},
		{in: "doc:urn:isbn:42", want: Ref{Type: "doc", ID: "urn:isbn:42"}},
		{in: "user", wantErr: true},
		{in: ":1", wantErr: true},
		{in: "user:", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRef(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidRef)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, got.String())
		})
	}
}

func TestRefOf(t *testing.T) {
	r, ok := RefOf(&user{id: "7"})
	assert.True(t, ok)
	assert.Equal(t, Ref{Type: "user", ID: "7"}, r)

	r, ok = RefOf(Ref{Type: "food", ID: "1"})
	assert.True(t, ok)
	assert.Equal(t, "food", r.Type)

	ptr := &Ref{Type: "food", ID: "2"}
	r, ok = RefOf(ptr)
	assert.True(t, ok)
	assert.Equal(t, "2", r.ID)

	_, ok = RefOf("STRING")
	assert.False(t, ok, "raw strings are not entities")
	_, ok = RefOf(nil)
	assert.False(t, ok)
	_, ok = RefOf(&user{})
	assert.False(t, ok, "an entity without id is not a usable reference")
}

func TestFilterMatch(t *testing.T) {
	m := &Mark{
		MarkID:   "m1",
		Marker:   Ref{Type: "user", ID: "1"},
		Markable: Ref{Type: "food", ID: "2"},
		Label:    "favorite",
	}

	assert.True(t, Filter{}.Match(m))
	assert.True(t, Filter{}.IsEmpty())
	assert.True(t, ByMarker(m.Marker, "favorite").Match(m))
	assert.True(t, ByMarker(m.Marker, "").Match(m))
	assert.False(t, ByMarker(m.Marker, "hated").Match(m))
	assert.True(t, ByMarkable(m.Markable, "favorite").Match(m))
	assert.False(t, ByMarkable(Ref{Type: "food", ID: "3"}, "").Match(m))
	assert.True(t, Exact(m.Marker, m.Markable, "favorite").Match(m))
	assert.True(t, Filter{IDs: []string{"m0", "m1"}}.Match(m))
	assert.False(t, Filter{IDs: []string{}}.Match(m), "empty id list matches nothing")
	assert.False(t, Filter{IDs: []string{}}.IsEmpty())
}

func TestMarkErrorMessages(t *testing.T) {
	err := error(WrongMarkableType("STRING", []string{"drink", "food"}))
	assert.True(t, errors.Is(err, ErrWrongMarkableType))
	assert.True(t, IsValidationError(err))
	assert.Equal(t, `wrong markable type: ['drink', 'food'] expected, 'string("STRING")' provided`, err.Error())

	err = WrongMarkerType(&user{id: "1"}, []string{"admin"})
	assert.ErrorIs(t, err, ErrWrongMarkerType)
	assert.Contains(t, err.Error(), "'user' provided")

	err = WrongMarkableTypeName("user", "favorite", []string{"drink", "food"})
	assert.ErrorIs(t, err, ErrWrongMarkableType)
	assert.Equal(t, "wrong markable type: ['drink', 'food'] expected, 'user' provided", err.Error())

	err = WrongMarkerTypeName("food", "favorite", []string{"admin", "user"})
	assert.ErrorIs(t, err, ErrWrongMarkerType)
	assert.Equal(t, "wrong marker type: ['admin', 'user'] expected, 'food' provided", err.Error())

	err = WrongMark("food", "loved", []string{"favorite", "hated"})
	assert.ErrorIs(t, err, ErrWrongMark)
	assert.Equal(t, "wrong mark 'loved' for 'food'; available marks: ['favorite', 'hated']", err.Error())

	err = NotAllowedMarker("user", "drink", "favorite", []string{"admin"})
	assert.ErrorIs(t, err, ErrNotAllowedMarker)
	assert.Contains(t, err.Error(), "marker 'user' is not allowed to mark 'drink' with mark 'favorite'")

	assert.False(t, IsValidationError(ErrNotFound))
}

func TestResolvers(t *testing.T) {
	ctx := context.Background()
	rs := Resolvers{
		"user": ResolverFunc(func(_ context.Context, ref Ref) (any, error) {
			if ref.ID == "1" {
				return &user{id: "1"}, nil
			}
			return nil, ErrNotFound
		}),
	}

	got, err := rs.Resolve(ctx, Ref{Type: "user", ID: "1"})
	require.NoError(t, err)
	assert.Equal(t, &user{id: "1"}, got)

	_, err = rs.Resolve(ctx, Ref{Type: "user", ID: "2"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = rs.Resolve(ctx, Ref{Type: "food", ID: "1"})
	assert.ErrorIs(t, err, ErrNoResolver)
	var re *ResolveError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "food:1", re.Ref.String())
}
