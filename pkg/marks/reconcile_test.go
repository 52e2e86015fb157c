package marks

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/markable/pkg/types"
)

// liveSet resolves refs it contains and reports the rest as not found.
type liveSet map[types.Ref]bool

func (l liveSet) Resolve(_ context.Context, ref types.Ref) (any, error) {
	if l[ref] {
		return ref, nil
	}
	return nil, types.ErrNotFound
}

func seedMarks(t *testing.T, svc *Service) liveSet {
	t.Helper()
	ctx := context.Background()
	live := liveSet{}
	for _, e := range []types.Entity{user{"u1"}, user{"u2"}, admin{"a1"}, food{"f1"}, food{"f2"}, drink{"d1"}} {
		live[e.MarkRef()] = true
	}
	_, err := svc.AddMarks(ctx, user{"u1"}, []any{food{"f1"}, food{"f2"}}, "favorite")
	require.NoError(t, err)
	_, err = svc.AddMark(ctx, user{"u2"}, food{"f2"}, "hated")
	require.NoError(t, err)
	_, err = svc.AddMarks(ctx, admin{"a1"}, []any{food{"f1"}, drink{"d1"}}, "favorite")
	require.NoError(t, err)
	return live
}

func TestReconciler_DeleteOrphans(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)
	live := seedMarks(t, svc)
	require.Equal(t, 5, store.Len())

	// Out-of-band deletes: food f2 and admin a1 vanish without cascade.
	delete(live, food{"f2"}.MarkRef())
	delete(live, admin{"a1"}.MarkRef())

	r := svc.Reconciler(live)

	orphans, err := r.FindOrphans(ctx)
	require.NoError(t, err)
	assert.Len(t, orphans, 4)
	assert.Equal(t, 5, store.Len(), "FindOrphans must not delete")

	n, err := r.DeleteOrphans(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, 1, store.Len())

	n, err = r.DeleteOrphans(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "second run finds nothing")

	has, err := svc.HasMark(ctx, user{"u1"}, food{"f1"}, "favorite")
	require.NoError(t, err)
	assert.True(t, has)
}

func TestReconciler_NoOrphans(t *testing.T) {
	svc, store := newService(t)
	live := seedMarks(t, svc)

	n, err := NewReconciler(store, live, quietLogger()).DeleteOrphans(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 5, store.Len())
}

func TestReconciler_ResolverErrorAborts(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)
	live := seedMarks(t, svc)
	delete(live, food{"f1"}.MarkRef())

	errLookup := errors.New("lookup failed")
	failing := types.ResolverFunc(func(ctx context.Context, ref types.Ref) (any, error) {
		if ref.Type == "drink" {
			return nil, errLookup
		}
		return live.Resolve(ctx, ref)
	})

	n, err := svc.Reconciler(failing).DeleteOrphans(ctx)
	require.ErrorIs(t, err, errLookup)
	assert.Equal(t, 0, n)
	assert.Equal(t, 5, store.Len(), "nothing deleted when a lookup fails")
}

func TestReconciler_MissingResolver(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)
	live := seedMarks(t, svc)

	resolvers := types.Resolvers{
		"user":  live,
		"admin": live,
		"food":  live,
	}
	_, err := svc.Reconciler(resolvers).DeleteOrphans(ctx)
	require.ErrorIs(t, err, types.ErrNoResolver)
	assert.Equal(t, 5, store.Len())

	var rerr *types.ResolveError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "drink", rerr.Ref.Type)

	_, err = svc.Reconciler(nil).FindOrphans(ctx)
	assert.ErrorIs(t, err, types.ErrNoResolver)
}

func TestReconciler_NilEntityIsOrphan(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)
	_, err := svc.AddMark(ctx, user{"u1"}, food{"f1"}, "favorite")
	require.NoError(t, err)

	none := types.ResolverFunc(func(context.Context, types.Ref) (any, error) { return nil, nil })
	n, err := svc.Reconciler(none).DeleteOrphans(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 0, store.Len())
}
