// Package memstore provides an in-memory MarkStore. It keeps marks in
// insertion order, optionally enforces (marker, markable, label) uniqueness,
// and supports transactions by snapshot and restore.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/markable/pkg/types"
)

var (
	_ types.MarkStore  = (*Store)(nil)
	_ types.Transactor = (*Store)(nil)
)

// Store is a MarkStore backed by a slice. Safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	state state
}

// state is the unlocked view shared by Store and transactions.
type state struct {
	unique bool
	marks  []*types.Mark
}

// New creates an empty store. With unique set, Insert rejects a second mark
// for the same (marker, markable, label) triple with types.ErrDuplicateMark.
func New(unique bool) *Store {
	return &Store{state: state{unique: unique}}
}

// Insert implements types.MarkStore.
func (s *Store) Insert(ctx context.Context, m *types.Mark) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.insert(ctx, m)
}

// DeleteWhere implements types.MarkStore.
func (s *Store) DeleteWhere(ctx context.Context, f types.Filter) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.deleteWhere(ctx, f)
}

// FindWhere implements types.MarkStore.
func (s *Store) FindWhere(ctx context.Context, f types.Filter) ([]*types.Mark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.findWhere(ctx, f)
}

// All implements types.MarkStore.
func (s *Store) All(ctx context.Context) ([]*types.Mark, error) {
	return s.FindWhere(ctx, types.Filter{})
}

// Len returns the number of stored marks.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.state.marks)
}

// WithTx runs fn with exclusive access to the store. If fn returns an error
// the store is restored to its state before the call.
func (s *Store) WithTx(ctx context.Context, fn func(types.MarkStore) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := make([]*types.Mark, len(s.state.marks))
	copy(snapshot, s.state.marks)

	if err := fn(&tx{st: &s.state}); err != nil {
		s.state.marks = snapshot
		return err
	}
	return nil
}

// tx is the MarkStore handed to WithTx callbacks. The store lock is already
// held, so it operates on state directly.
type tx struct {
	st *state
}

func (t *tx) Insert(ctx context.Context, m *types.Mark) (string, error) {
	return t.st.insert(ctx, m)
}

func (t *tx) DeleteWhere(ctx context.Context, f types.Filter) (int, error) {
	return t.st.deleteWhere(ctx, f)
}

func (t *tx) FindWhere(ctx context.Context, f types.Filter) ([]*types.Mark, error) {
	return t.st.findWhere(ctx, f)
}

func (t *tx) All(ctx context.Context) ([]*types.Mark, error) {
	return t.st.findWhere(ctx, types.Filter{})
}

func (st *state) insert(ctx context.Context, m *types.Mark) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if m == nil {
		return "", types.ErrInvalidData
	}
	if st.unique {
		for _, existing := range st.marks {
			if existing.Matches(m.Marker, m.Markable, m.Label) {
				return "", types.ErrDuplicateMark
			}
		}
	}

	if m.MarkID == "" {
		m.MarkID = uuid.Must(uuid.NewV7()).String()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	cp := *m
	st.marks = append(st.marks, &cp)
	return m.MarkID, nil
}

func (st *state) deleteWhere(ctx context.Context, f types.Filter) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	kept := st.marks[:0:0]
	removed := 0
	for _, m := range st.marks {
		if f.Match(m) {
			removed++
			continue
		}
		kept = append(kept, m)
	}
	st.marks = kept
	return removed, nil
}

func (st *state) findWhere(ctx context.Context, f types.Filter) ([]*types.Mark, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	results := []*types.Mark{}
	for _, m := range st.marks {
		if f.Match(m) {
			cp := *m
			results = append(results, &cp)
		}
	}
	return results, nil
}
