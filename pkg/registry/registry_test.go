package registry

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/markable/pkg/types"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// newFoodRegistry declares users and admins as markers, food markable with
// favorite/hated by users, and drink markable with favorite by admins only.
func newFoodRegistry(t *testing.T) *Registry {
	t.Helper()
	r := New(quietLogger())
	require.NoError(t, r.RegisterMarker("user", ""))
	require.NoError(t, r.RegisterMarker("admin", "administrator"))
	require.NoError(t, r.RegisterMarkable("food", map[string]LabelConfig{
		"favorite": {AllowedMarkers: []string{"user", "admin"}},
		"hated":    {AllowedMarkers: []string{"user"}},
	}))
	require.NoError(t, r.RegisterMarkable("drink", map[string]LabelConfig{
		"favorite": {AllowedMarkers: []string{"admin"}},
	}))
	return r
}

func TestRegistry_Roles(t *testing.T) {
	r := newFoodRegistry(t)

	assert.True(t, r.IsMarker("user"))
	assert.False(t, r.IsMarker("food"))
	assert.True(t, r.IsMarkable("food"))
	assert.False(t, r.IsMarkable("user"))

	name, ok := r.MarkerName("user")
	assert.True(t, ok)
	assert.Equal(t, "user", name, "role name defaults to the type id")
	name, _ = r.MarkerName("admin")
	assert.Equal(t, "administrator", name)
	_, ok = r.MarkerName("food")
	assert.False(t, ok)

	assert.Equal(t, []string{"admin", "user"}, r.MarkerTypes())
	assert.Equal(t, []string{"drink", "food"}, r.MarkableTypes())
}

func TestRegistry_Labels(t *testing.T) {
	r := newFoodRegistry(t)

	assert.Equal(t, []string{"favorite", "hated"}, r.DeclaredLabels("food"))
	assert.Equal(t, []string{"favorite"}, r.DeclaredLabels("drink"))
	assert.Empty(t, r.DeclaredLabels("user"))
	assert.True(t, r.HasLabel("food", "hated"))
	assert.False(t, r.HasLabel("drink", "hated"))

	allowed, err := r.AllowedMarkers("food", "favorite")
	require.NoError(t, err)
	assert.Equal(t, []string{"admin", "user"}, allowed)

	_, err = r.AllowedMarkers("food", "loved")
	assert.ErrorIs(t, err, types.ErrWrongMark)

	_, err = r.AllowedMarkers("user", "favorite")
	assert.ErrorIs(t, err, types.ErrWrongMarkableType)

	assert.True(t, r.IsAllowed("user", "food", "hated"))
	assert.False(t, r.IsAllowed("user", "drink", "favorite"))
	assert.False(t, r.IsAllowed("user", "food", "loved"))
}

func TestRegistry_AllowedMarkables(t *testing.T) {
	r := newFoodRegistry(t)

	assert.Equal(t, []string{"food"}, r.AllowedMarkables("user", "favorite"))
	assert.Equal(t, []string{"drink", "food"}, r.AllowedMarkables("admin", "favorite"))
	assert.Empty(t, r.AllowedMarkables("admin", "hated"))
	assert.Empty(t, r.AllowedMarkables("food", "favorite"))

	// Markers declared after markables still get their counterpart set.
	require.NoError(t, r.RegisterMarkable("book", map[string]LabelConfig{
		"favorite": {AllowedMarkers: []string{"robot"}},
	}))
	assert.Empty(t, r.AllowedMarkables("robot", "favorite"))
	require.NoError(t, r.RegisterMarker("robot", ""))
	assert.Equal(t, []string{"book"}, r.AllowedMarkables("robot", "favorite"))
}

func TestRegistry_ReRegistrationReplaces(t *testing.T) {
	r := newFoodRegistry(t)

	require.NoError(t, r.RegisterMarkable("food", map[string]LabelConfig{
		"liked": {AllowedMarkers: []string{"user"}},
	}))
	assert.Equal(t, []string{"liked"}, r.DeclaredLabels("food"), "labels are replaced, not merged")
	assert.Equal(t, []string{"food"}, r.AllowedMarkables("user", "liked"))
	assert.Empty(t, r.AllowedMarkables("user", "hated"))

	// Marker registration is idempotent.
	require.NoError(t, r.RegisterMarker("user", ""))
	assert.Equal(t, []string{"admin", "user"}, r.MarkerTypes())
}

func TestRegistry_InvalidInput(t *testing.T) {
	r := New(quietLogger())

	assert.ErrorIs(t, r.RegisterMarker("", ""), types.ErrEmptyTypeID)
	assert.ErrorIs(t, r.RegisterMarkable("", nil), types.ErrEmptyTypeID)

	err := r.RegisterMarkable("food", map[string]LabelConfig{
		strings.Repeat("x", types.MaxLabelLength+1): {AllowedMarkers: []string{"user"}},
	})
	assert.ErrorIs(t, err, types.ErrInvalidLabel)
	assert.False(t, r.IsMarkable("food"), "failed registration leaves no entry")

	err = r.RegisterMarkable("food", map[string]LabelConfig{"": {}})
	assert.ErrorIs(t, err, types.ErrInvalidLabel)
}

func TestRegistry_SealAndReset(t *testing.T) {
	r := newFoodRegistry(t)
	r.Seal()
	assert.True(t, r.Sealed())

	assert.True(t, errors.Is(r.RegisterMarker("robot", ""), types.ErrRegistrySealed))
	assert.True(t, errors.Is(r.RegisterMarkable("book", nil), types.ErrRegistrySealed))
	assert.True(t, r.IsMarkable("food"), "reads still work after sealing")

	r.Reset()
	assert.False(t, r.Sealed())
	assert.Empty(t, r.MarkerTypes())
	assert.Empty(t, r.MarkableTypes())
	require.NoError(t, r.RegisterMarker("robot", ""))
}

func TestRegistry_MarkerLabels(t *testing.T) {
	r := newFoodRegistry(t)

	assert.Equal(t, []string{"favorite", "hated"}, r.MarkerLabels("user"))
	assert.Equal(t, []string{"favorite"}, r.MarkerLabels("admin"))
	assert.Empty(t, r.MarkerLabels("food"))

	assert.True(t, r.LabelDeclared("hated"))
	assert.False(t, r.LabelDeclared("loved"))
}
