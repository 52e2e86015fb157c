package sqlite

import (
	"context"
	"database/sql"
	"io"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/markable/pkg/registry"
	"github.com/mesh-intelligence/markable/pkg/types"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestNewBackend_Attach(t *testing.T) {
	ctx := context.Background()
	b := NewBackend(quietLogger())
	require.NoError(t, b.Attach(types.Config{
		Backend:     types.BackendSQLite,
		DataDir:     t.TempDir(),
		UniqueMarks: true,
	}))
	defer b.Detach()

	_, err := b.Insert(ctx, &types.Mark{
		Marker:   types.Ref{Type: "user", ID: "u1"},
		Markable: types.Ref{Type: "food", ID: "f1"},
		Label:    "favorite",
	})
	require.NoError(t, err)

	all, err := b.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestResolvers(t *testing.T) {
	ctx := context.Background()
	b, err := Open(filepath.Join(t.TempDir(), "marks.db"), true, quietLogger())
	require.NoError(t, err)
	defer b.Detach()

	db := b.(interface{ DB() *sql.DB }).DB()
	_, err = db.ExecContext(ctx, `CREATE TABLE foods (food_id TEXT PRIMARY KEY); INSERT INTO foods VALUES ('f1')`)
	require.NoError(t, err)

	def := registry.Definition{
		Markables: []registry.MarkableDef{{Type: "food", Table: "foods", IDColumn: "food_id"}},
		Markers:   []registry.MarkerDef{{Type: "user"}},
	}
	resolvers, err := Resolvers(b, def.Tables())
	require.NoError(t, err)
	require.Len(t, resolvers, 1)

	v, err := resolvers.Resolve(ctx, types.Ref{Type: "food", ID: "f1"})
	require.NoError(t, err)
	assert.Equal(t, "f1", v)

	_, err = resolvers.Resolve(ctx, types.Ref{Type: "food", ID: "f2"})
	assert.ErrorIs(t, err, types.ErrNotFound)

	_, err = resolvers.Resolve(ctx, types.Ref{Type: "user", ID: "u1"})
	assert.ErrorIs(t, err, types.ErrNoResolver)
}

func TestResolvers_Errors(t *testing.T) {
	_, err := Resolvers(struct{ types.Backend }{}, nil)
	assert.ErrorIs(t, err, ErrNotSQLite)

	b := NewBackend(quietLogger())
	_, err = Resolvers(b, nil)
	assert.ErrorIs(t, err, types.ErrDetached)

	b, err = Open(filepath.Join(t.TempDir(), "marks.db"), true, quietLogger())
	require.NoError(t, err)
	defer b.Detach()
	_, err = Resolvers(b, map[string]registry.Location{"food": {Table: "foods; DROP", IDColumn: "id"}})
	assert.Error(t, err)
}
