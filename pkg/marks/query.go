package marks

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/markable/pkg/types"
)

// HasMark reports whether marker has applied label to markable.
func (s *Service) HasMark(ctx context.Context, marker, markable any, label string) (bool, error) {
	p, err := s.validate(marker, markable, label)
	if err != nil {
		return false, err
	}
	m, err := s.find(ctx, s.store, p, label)
	if err != nil {
		return false, err
	}
	return m != nil, nil
}

// MarksOn returns the markers that have applied label to markable, oldest
// first.
func (s *Service) MarksOn(ctx context.Context, markable any, label string) ([]types.Ref, error) {
	markableRef, ok := types.RefOf(markable)
	if !ok || !s.registry.IsMarkable(markableRef.Type) {
		return nil, types.WrongMarkableType(markable, s.registry.MarkableTypes())
	}
	if !s.registry.HasLabel(markableRef.Type, label) {
		return nil, types.WrongMark(markableRef.Type, label, s.registry.DeclaredLabels(markableRef.Type))
	}

	found, err := s.store.FindWhere(ctx, types.ByMarkable(markableRef, label))
	if err != nil {
		return nil, fmt.Errorf("finding marks on %s: %w", markableRef, err)
	}
	return distinct(found, func(m *types.Mark) types.Ref { return m.Marker }), nil
}

// MarksBy returns the markables that marker has applied label to, across
// every markable type on which the marker may use label, oldest first.
func (s *Service) MarksBy(ctx context.Context, marker any, label string) ([]types.Ref, error) {
	markerRef, ok := types.RefOf(marker)
	if !ok || !s.registry.IsMarker(markerRef.Type) {
		return nil, types.WrongMarkerType(marker, s.registry.MarkerTypes())
	}

	targets := s.registry.AllowedMarkables(markerRef.Type, label)
	if len(targets) == 0 {
		if !s.registry.LabelDeclared(label) {
			return nil, types.WrongMark("any markable type", label, s.registry.MarkerLabels(markerRef.Type))
		}
		return nil, types.NotAllowedMarker(markerRef.Type, "any markable type", label, nil)
	}
	allowed := make(map[string]bool, len(targets))
	for _, t := range targets {
		allowed[t] = true
	}

	found, err := s.store.FindWhere(ctx, types.ByMarker(markerRef, label))
	if err != nil {
		return nil, fmt.Errorf("finding marks by %s: %w", markerRef, err)
	}
	kept := found[:0]
	for _, m := range found {
		if allowed[m.Markable.Type] {
			kept = append(kept, m)
		}
	}
	return distinct(kept, func(m *types.Mark) types.Ref { return m.Markable }), nil
}

// MarksByType returns the markables of markableType that marker has applied
// label to, oldest first. The combination is validated in the same order as
// AddMark.
func (s *Service) MarksByType(ctx context.Context, marker any, markableType, label string) ([]types.Ref, error) {
	if !s.registry.IsMarkable(markableType) {
		return nil, types.WrongMarkableTypeName(markableType, label, s.registry.MarkableTypes())
	}
	markerRef, err := s.checkMarker(marker, markableType, label)
	if err != nil {
		return nil, err
	}

	f := types.ByMarker(markerRef, label)
	f.MarkableType = markableType
	found, err := s.store.FindWhere(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("finding marks by %s: %w", markerRef, err)
	}
	return distinct(found, func(m *types.Mark) types.Ref { return m.Markable }), nil
}

// LabelsBetween returns every label marker has applied to markable, in the
// order they were applied.
func (s *Service) LabelsBetween(ctx context.Context, marker, markable any) ([]string, error) {
	markableRef, ok := types.RefOf(markable)
	if !ok || !s.registry.IsMarkable(markableRef.Type) {
		return nil, types.WrongMarkableType(markable, s.registry.MarkableTypes())
	}
	markerRef, ok := types.RefOf(marker)
	if !ok || !s.registry.IsMarker(markerRef.Type) {
		return nil, types.WrongMarkerType(marker, s.registry.MarkerTypes())
	}

	f := types.ByMarker(markerRef, "")
	f.MarkableType = markableRef.Type
	f.MarkableID = markableRef.ID
	found, err := s.store.FindWhere(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("finding labels: %w", err)
	}
	return distinct(found, func(m *types.Mark) string { return m.Label }), nil
}

// distinct projects marks through key, dropping repeats but keeping order.
func distinct[K comparable](marks []*types.Mark, key func(*types.Mark) K) []K {
	seen := make(map[K]bool, len(marks))
	out := make([]K, 0, len(marks))
	for _, m := range marks {
		k := key(m)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}
