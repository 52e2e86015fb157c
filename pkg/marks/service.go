// Package marks implements the mark service: validated, idempotent creation
// and removal of marks between declared entity types, the queries over them,
// and the orphan reconciler that repairs marks left behind by out-of-band
// deletes.
//
// Every write is checked against a registry.Registry in a fixed order:
//
//  1. the markable's type must be declared markable (ErrWrongMarkableType)
//  2. the label must be declared for that type (ErrWrongMark)
//  3. the marker's type must be declared as a marker (ErrWrongMarkerType)
//  4. the marker's type must be allowed to apply the label (ErrNotAllowedMarker)
//
// Markers and markables are passed as any: a types.Entity, a types.Ref or a
// *types.Ref. Any other value is treated as an undeclared type.
package marks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/markable/internal/validation"
	"github.com/mesh-intelligence/markable/pkg/registry"
	"github.com/mesh-intelligence/markable/pkg/types"
)

// Service applies and queries marks.
type Service struct {
	registry  *registry.Registry
	store     types.MarkStore
	log       *logrus.Logger
	validator *validation.Validator
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used for write and maintenance events.
func WithLogger(l *logrus.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock overrides the clock used to stamp new marks.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a Service validating against reg and persisting to
// store.
func NewService(reg *registry.Registry, store types.MarkStore, opts ...Option) *Service {
	s := &Service{
		registry:  reg,
		store:     store,
		log:       defaultLogger(),
		validator: validation.New(),
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func defaultLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.WarnLevel)
	return l
}

// Registry returns the registry the service validates against.
func (s *Service) Registry() *registry.Registry {
	return s.registry
}

// pair is a validated (marker, markable) combination.
type pair struct {
	marker   types.Ref
	markable types.Ref
}

// validate runs the four checks in order and returns the resolved refs.
func (s *Service) validate(marker, markable any, label string) (pair, error) {
	markableRef, ok := types.RefOf(markable)
	if !ok || !s.registry.IsMarkable(markableRef.Type) {
		return pair{}, types.WrongMarkableType(markable, s.registry.MarkableTypes())
	}
	markerRef, err := s.checkMarker(marker, markableRef.Type, label)
	if err != nil {
		return pair{}, err
	}
	return pair{marker: markerRef, markable: markableRef}, nil
}

// checkMarker runs checks 2 to 4 for a markable type already known to be
// declared.
func (s *Service) checkMarker(marker any, markableType, label string) (types.Ref, error) {
	if !s.registry.HasLabel(markableType, label) {
		return types.Ref{}, types.WrongMark(markableType, label, s.registry.DeclaredLabels(markableType))
	}
	markerRef, ok := types.RefOf(marker)
	if !ok || !s.registry.IsMarker(markerRef.Type) {
		return types.Ref{}, types.WrongMarkerType(marker, s.registry.MarkerTypes())
	}
	if !s.registry.IsAllowed(markerRef.Type, markableType, label) {
		allowed, _ := s.registry.AllowedMarkers(markableType, label)
		return types.Ref{}, types.NotAllowedMarker(markerRef.Type, markableType, label, allowed)
	}
	return markerRef, nil
}

// validateEach validates n combinations produced by at. Nothing is written
// unless every combination is valid.
func (s *Service) validateEach(n int, at func(i int) (marker, markable any), label string) ([]pair, error) {
	pairs := make([]pair, 0, n)
	for i := 0; i < n; i++ {
		marker, markable := at(i)
		p, err := s.validate(marker, markable, label)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		pairs = append(pairs, p)
	}
	return pairs, nil
}

// inTx runs fn in a transaction when the store supports one, and directly
// against the store otherwise.
func (s *Service) inTx(ctx context.Context, fn func(types.MarkStore) error) error {
	if tx, ok := s.store.(types.Transactor); ok {
		return tx.WithTx(ctx, fn)
	}
	return fn(s.store)
}

// AddMark applies label from marker to markable. If the mark already exists
// it is returned unchanged; otherwise a new mark is stored and returned.
func (s *Service) AddMark(ctx context.Context, marker, markable any, label string) (*types.Mark, error) {
	p, err := s.validate(marker, markable, label)
	if err != nil {
		return nil, err
	}
	return s.add(ctx, s.store, p, label)
}

// AddMarks applies label from one marker to each markable. Every
// combination is validated before anything is written; marks that already
// exist are kept as they are.
func (s *Service) AddMarks(ctx context.Context, marker any, markables []any, label string) ([]*types.Mark, error) {
	pairs, err := s.validateEach(len(markables), func(i int) (any, any) {
		return marker, markables[i]
	}, label)
	if err != nil {
		return nil, err
	}
	return s.commitAdd(ctx, pairs, label)
}

// AddMarkers applies label from each marker to one markable. Validation and
// idempotency follow AddMarks.
func (s *Service) AddMarkers(ctx context.Context, markers []any, markable any, label string) ([]*types.Mark, error) {
	pairs, err := s.validateEach(len(markers), func(i int) (any, any) {
		return markers[i], markable
	}, label)
	if err != nil {
		return nil, err
	}
	return s.commitAdd(ctx, pairs, label)
}

func (s *Service) commitAdd(ctx context.Context, pairs []pair, label string) ([]*types.Mark, error) {
	marks := make([]*types.Mark, 0, len(pairs))
	err := s.inTx(ctx, func(store types.MarkStore) error {
		for _, p := range pairs {
			m, err := s.add(ctx, store, p, label)
			if err != nil {
				return err
			}
			marks = append(marks, m)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return marks, nil
}

// add inserts the mark unless an equivalent one exists. A duplicate reported
// by the store means a concurrent writer won; its row is returned.
func (s *Service) add(ctx context.Context, store types.MarkStore, p pair, label string) (*types.Mark, error) {
	existing, err := s.find(ctx, store, p, label)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	m := &types.Mark{
		Marker:    p.marker,
		Markable:  p.markable,
		Label:     label,
		CreatedAt: s.now(),
	}
	if err := s.validator.Mark(m); err != nil {
		return nil, err
	}

	if _, err := store.Insert(ctx, m); err != nil {
		if !errors.Is(err, types.ErrDuplicateMark) {
			return nil, fmt.Errorf("adding mark: %w", err)
		}
		existing, ferr := s.find(ctx, store, p, label)
		if ferr != nil {
			return nil, ferr
		}
		if existing == nil {
			return nil, fmt.Errorf("adding mark: %w", err)
		}
		return existing, nil
	}

	s.log.WithFields(logrus.Fields{
		"marker":   p.marker.String(),
		"markable": p.markable.String(),
		"mark":     label,
	}).Debug("mark added")

	return m, nil
}

func (s *Service) find(ctx context.Context, store types.MarkStore, p pair, label string) (*types.Mark, error) {
	found, err := store.FindWhere(ctx, types.Exact(p.marker, p.markable, label))
	if err != nil {
		return nil, fmt.Errorf("finding mark: %w", err)
	}
	if len(found) == 0 {
		return nil, nil
	}
	return found[0], nil
}

// RemoveMark deletes the mark label from marker on markable and returns the
// number of rows removed. Removing an absent mark is not an error, but the
// types and label are validated first.
func (s *Service) RemoveMark(ctx context.Context, marker, markable any, label string) (int, error) {
	p, err := s.validate(marker, markable, label)
	if err != nil {
		return 0, err
	}
	return s.commitRemove(ctx, []pair{p}, label)
}

// RemoveMarks deletes label from marker on each markable. Every combination
// is validated before anything is deleted.
func (s *Service) RemoveMarks(ctx context.Context, marker any, markables []any, label string) (int, error) {
	pairs, err := s.validateEach(len(markables), func(i int) (any, any) {
		return marker, markables[i]
	}, label)
	if err != nil {
		return 0, err
	}
	return s.commitRemove(ctx, pairs, label)
}

// RemoveMarkers deletes label from each marker on one markable.
func (s *Service) RemoveMarkers(ctx context.Context, markers []any, markable any, label string) (int, error) {
	pairs, err := s.validateEach(len(markers), func(i int) (any, any) {
		return markers[i], markable
	}, label)
	if err != nil {
		return 0, err
	}
	return s.commitRemove(ctx, pairs, label)
}

func (s *Service) commitRemove(ctx context.Context, pairs []pair, label string) (int, error) {
	removed := 0
	run := func(store types.MarkStore) error {
		for _, p := range pairs {
			n, err := store.DeleteWhere(ctx, types.Exact(p.marker, p.markable, label))
			if err != nil {
				return fmt.Errorf("removing mark: %w", err)
			}
			removed += n
		}
		return nil
	}

	var err error
	if len(pairs) == 1 {
		err = run(s.store)
	} else {
		err = s.inTx(ctx, run)
	}
	if err != nil {
		return 0, err
	}

	s.log.WithFields(logrus.Fields{
		"pairs":   len(pairs),
		"mark":    label,
		"removed": removed,
	}).Debug("marks removed")

	return removed, nil
}

// DeleteReferences removes every mark in which ref is the marker or the
// markable. The host entity layer calls it when it destroys a record, in
// place of a database cascade. ref may be an Entity, a Ref or a *Ref; the
// type does not need to be registered.
func (s *Service) DeleteReferences(ctx context.Context, ref any) (int, error) {
	r, ok := types.RefOf(ref)
	if !ok {
		return 0, fmt.Errorf("%w: %T", types.ErrInvalidRef, ref)
	}

	removed := 0
	err := s.inTx(ctx, func(store types.MarkStore) error {
		for _, f := range []types.Filter{types.ByMarker(r, ""), types.ByMarkable(r, "")} {
			n, err := store.DeleteWhere(ctx, f)
			if err != nil {
				return fmt.Errorf("deleting marks of %s: %w", r, err)
			}
			removed += n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.log.WithFields(logrus.Fields{
		"ref":     r.String(),
		"removed": removed,
	}).Info("marks of destroyed record deleted")

	return removed, nil
}
