package marks

import (
	"context"

	"github.com/mesh-intelligence/markable/pkg/types"
)

// Pairing is the accessor for one declared (marker type, markable type,
// label) combination, such as a user's favorite foods. Each call goes through
// the Service; the pairing only pins the types and label.
type Pairing struct {
	svc          *Service
	markerType   string
	markableType string
	label        string
}

// NewPairing validates the combination against the service's registry and
// returns an accessor for it.
func NewPairing(svc *Service, markerType, markableType, label string) (*Pairing, error) {
	reg := svc.registry
	if !reg.IsMarkable(markableType) {
		return nil, types.WrongMarkableTypeName(markableType, label, reg.MarkableTypes())
	}
	if !reg.HasLabel(markableType, label) {
		return nil, types.WrongMark(markableType, label, reg.DeclaredLabels(markableType))
	}
	if !reg.IsMarker(markerType) {
		return nil, types.WrongMarkerTypeName(markerType, label, reg.MarkerTypes())
	}
	if !reg.IsAllowed(markerType, markableType, label) {
		allowed, _ := reg.AllowedMarkers(markableType, label)
		return nil, types.NotAllowedMarker(markerType, markableType, label, allowed)
	}
	return &Pairing{svc: svc, markerType: markerType, markableType: markableType, label: label}, nil
}

// Pairing is shorthand for NewPairing(s, ...).
func (s *Service) Pairing(markerType, markableType, label string) (*Pairing, error) {
	return NewPairing(s, markerType, markableType, label)
}

// Label returns the pairing's label.
func (p *Pairing) Label() string { return p.label }

// Markables returns the markables marker has marked under this pairing.
func (p *Pairing) Markables(ctx context.Context, marker any) ([]types.Ref, error) {
	if err := p.checkMarker(marker); err != nil {
		return nil, err
	}
	return p.svc.MarksByType(ctx, marker, p.markableType, p.label)
}

// Markers returns the markers that have marked markable under this pairing.
func (p *Pairing) Markers(ctx context.Context, markable any) ([]types.Ref, error) {
	if err := p.checkMarkable(markable); err != nil {
		return nil, err
	}
	refs, err := p.svc.MarksOn(ctx, markable, p.label)
	if err != nil {
		return nil, err
	}
	out := refs[:0]
	for _, r := range refs {
		if r.Type == p.markerType {
			out = append(out, r)
		}
	}
	return out, nil
}

// Add marks each markable for marker. Markables are validated by
// Service.AddMarks, so a markable of another type fails with the same error
// kind the service reports for it.
func (p *Pairing) Add(ctx context.Context, marker any, markables ...any) ([]*types.Mark, error) {
	if err := p.checkMarker(marker); err != nil {
		return nil, err
	}
	return p.svc.AddMarks(ctx, marker, markables, p.label)
}

// Delete removes marker's mark from each markable. See Service.RemoveMarks.
func (p *Pairing) Delete(ctx context.Context, marker any, markables ...any) (int, error) {
	if err := p.checkMarker(marker); err != nil {
		return 0, err
	}
	return p.svc.RemoveMarks(ctx, marker, markables, p.label)
}

func (p *Pairing) checkMarker(marker any) error {
	if ref, ok := types.RefOf(marker); ok && ref.Type == p.markerType {
		return nil
	}
	return types.WrongMarkerType(marker, []string{p.markerType})
}

func (p *Pairing) checkMarkable(markable any) error {
	if ref, ok := types.RefOf(markable); ok && ref.Type == p.markableType {
		return nil
	}
	return types.WrongMarkableType(markable, []string{p.markableType})
}
