package marks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/markable/pkg/types"
)

func TestNewPairing_Errors(t *testing.T) {
	svc, _ := newService(t)

	tests := []struct {
		name         string
		markerType   string
		markableType string
		label        string
		want         error
	}{
		{"markable type", "user", "user", "favorite", types.ErrWrongMarkableType},
		{"label", "user", "food", "loved", types.ErrWrongMark},
		{"marker type", "food", "food", "favorite", types.ErrWrongMarkerType},
		{"not allowed", "user", "drink", "favorite", types.ErrNotAllowedMarker},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPairing(svc, tt.markerType, tt.markableType, tt.label)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, p)
		})
	}
}

func TestPairing_FavoriteFoods(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)
	u1, u2 := user{"u1"}, user{"u2"}

	favoriteFoods, err := svc.Pairing("user", "food", "favorite")
	require.NoError(t, err)
	assert.Equal(t, "favorite", favoriteFoods.Label())

	_, err = favoriteFoods.Add(ctx, u1, food{"f1"}, food{"f2"})
	require.NoError(t, err)
	_, err = favoriteFoods.Add(ctx, u2, food{"f1"})
	require.NoError(t, err)
	// An admin favorite on the same food is outside this pairing.
	_, err = svc.AddMark(ctx, admin{"a1"}, food{"f1"}, "favorite")
	require.NoError(t, err)

	foods, err := favoriteFoods.Markables(ctx, u1)
	require.NoError(t, err)
	assert.Equal(t, []types.Ref{{Type: "food", ID: "f1"}, {Type: "food", ID: "f2"}}, foods)

	fans, err := favoriteFoods.Markers(ctx, food{"f1"})
	require.NoError(t, err)
	assert.Equal(t, []types.Ref{{Type: "user", ID: "u1"}, {Type: "user", ID: "u2"}}, fans)

	n, err := favoriteFoods.Delete(ctx, u1, food{"f1"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 3, store.Len())
}

func TestPairing_RejectsOtherTypes(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)

	favoriteFoods, err := svc.Pairing("user", "food", "favorite")
	require.NoError(t, err)

	_, err = favoriteFoods.Add(ctx, admin{"a1"}, food{"f1"})
	assert.ErrorIs(t, err, types.ErrWrongMarkerType)

	// Markables go through the service's checks: drink is a declared
	// markable that users may not mark as favorite.
	_, err = favoriteFoods.Add(ctx, user{"u1"}, food{"f1"}, drink{"d1"})
	assert.ErrorIs(t, err, types.ErrNotAllowedMarker)
	assert.Contains(t, err.Error(), "marker 'user' is not allowed to mark 'drink' with mark 'favorite'")
	assert.Equal(t, 0, store.Len())

	_, err = favoriteFoods.Add(ctx, user{"u1"}, user{"u2"})
	assert.ErrorIs(t, err, types.ErrWrongMarkableType)
	assert.Contains(t, err.Error(), "['drink', 'food'] expected")

	_, err = favoriteFoods.Delete(ctx, user{"u1"}, drink{"d1"})
	assert.ErrorIs(t, err, types.ErrNotAllowedMarker)

	_, err = favoriteFoods.Markables(ctx, admin{"a1"})
	assert.ErrorIs(t, err, types.ErrWrongMarkerType)

	_, err = favoriteFoods.Markers(ctx, drink{"d1"})
	assert.ErrorIs(t, err, types.ErrWrongMarkableType)
}
