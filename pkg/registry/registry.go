// Package registry holds the declared marker/markable capability graph: which
// types may act as markers, which types may be marked, which labels each
// markable type accepts and which marker types may apply each label.
//
// A Registry is built once during startup and is read-only afterwards. Reads
// take no locks, so every registration must happen before the registry is
// shared between goroutines. Seal enforces this; Reset exists for test
// harnesses only.
package registry

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/markable/internal/validation"
	"github.com/mesh-intelligence/markable/pkg/types"
)

// LabelConfig declares which marker types may apply a label.
type LabelConfig struct {
	AllowedMarkers []string `mapstructure:"allowed_markers" yaml:"allowed_markers"`
}

// Registry is the process-wide table of declared entity types.
type Registry struct {
	log       *logrus.Logger
	validator *validation.Validator
	sealed    bool

	markers   map[string]*markerEntry
	markables map[string]*markableEntry
}

type markerEntry struct {
	name string
	// targets is the derived counterpart set: label -> markable types that
	// allow this marker under that label.
	targets map[string]set
}

type markableEntry struct {
	labels map[string]set // label -> allowed marker types
}

type set map[string]struct{}

func newSet(items []string) set {
	s := make(set, len(items))
	for _, it := range items {
		s[it] = struct{}{}
	}
	return s
}

func (s set) has(item string) bool {
	_, ok := s[item]
	return ok
}

func (s set) sorted() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// New creates an empty registry. A nil logger is replaced by a default
// logrus logger.
func New(logger *logrus.Logger) *Registry {
	if logger == nil {
		logger = logrus.New()
	}
	return &Registry{
		log:       logger,
		validator: validation.New(),
		markers:   make(map[string]*markerEntry),
		markables: make(map[string]*markableEntry),
	}
}

// RegisterMarker declares that typeID may act as a marker. name is the
// human-readable role name; empty defaults to typeID. Registering the same
// type again replaces its role name.
func (r *Registry) RegisterMarker(typeID, name string) error {
	if r.sealed {
		return types.ErrRegistrySealed
	}
	if typeID == "" {
		return types.ErrEmptyTypeID
	}
	if name == "" {
		name = typeID
	}

	if e, ok := r.markers[typeID]; ok {
		e.name = name
		return nil
	}
	r.markers[typeID] = &markerEntry{name: name}
	r.reindex()
	return nil
}

// RegisterMarkable declares that typeID may be marked with the given labels.
// Re-registering a type replaces its previous label configuration entirely;
// the two are never merged.
func (r *Registry) RegisterMarkable(typeID string, labels map[string]LabelConfig) error {
	if r.sealed {
		return types.ErrRegistrySealed
	}
	if typeID == "" {
		return types.ErrEmptyTypeID
	}

	entry := &markableEntry{labels: make(map[string]set, len(labels))}
	for label, cfg := range labels {
		if err := r.validator.Label(label); err != nil {
			return fmt.Errorf("registering %s: %w", typeID, err)
		}
		entry.labels[label] = newSet(cfg.AllowedMarkers)
	}

	if _, ok := r.markables[typeID]; ok {
		r.log.WithFields(logrus.Fields{
			"type":   typeID,
			"labels": len(labels),
		}).Warn("markable re-registered, previous label configuration replaced")
	}
	r.markables[typeID] = entry
	r.reindex()
	return nil
}

// reindex rebuilds each marker's derived counterpart set.
func (r *Registry) reindex() {
	for _, m := range r.markers {
		m.targets = make(map[string]set)
	}
	for markableType, e := range r.markables {
		for label, allowed := range e.labels {
			for markerType := range allowed {
				m, ok := r.markers[markerType]
				if !ok {
					continue
				}
				if m.targets[label] == nil {
					m.targets[label] = make(set)
				}
				m.targets[label][markableType] = struct{}{}
			}
		}
	}
}

// Seal freezes the registry. Later registrations fail with
// types.ErrRegistrySealed.
func (r *Registry) Seal() {
	r.sealed = true
}

// Sealed reports whether Seal has been called.
func (r *Registry) Sealed() bool {
	return r.sealed
}

// Reset clears every declaration and unseals the registry. For tests.
func (r *Registry) Reset() {
	r.sealed = false
	r.markers = make(map[string]*markerEntry)
	r.markables = make(map[string]*markableEntry)
}

// IsMarker reports whether typeID is declared as a marker.
func (r *Registry) IsMarker(typeID string) bool {
	_, ok := r.markers[typeID]
	return ok
}

// IsMarkable reports whether typeID is declared as markable.
func (r *Registry) IsMarkable(typeID string) bool {
	_, ok := r.markables[typeID]
	return ok
}

// MarkerName returns the role name of a marker type.
func (r *Registry) MarkerName(typeID string) (string, bool) {
	e, ok := r.markers[typeID]
	if !ok {
		return "", false
	}
	return e.name, true
}

// HasLabel reports whether label is declared for markableType.
func (r *Registry) HasLabel(markableType, label string) bool {
	e, ok := r.markables[markableType]
	if !ok {
		return false
	}
	_, ok = e.labels[label]
	return ok
}

// AllowedMarkers returns the marker types that may apply label to
// markableType. Returns an ErrWrongMark error when the label is not declared
// for the type, and an ErrWrongMarkableType error when the type is not
// markable at all.
func (r *Registry) AllowedMarkers(markableType, label string) ([]string, error) {
	e, ok := r.markables[markableType]
	if !ok {
		return nil, types.WrongMarkableTypeName(markableType, label, r.MarkableTypes())
	}
	allowed, ok := e.labels[label]
	if !ok {
		return nil, types.WrongMark(markableType, label, r.DeclaredLabels(markableType))
	}
	return allowed.sorted(), nil
}

// IsAllowed reports whether markerType may apply label to markableType.
func (r *Registry) IsAllowed(markerType, markableType, label string) bool {
	e, ok := r.markables[markableType]
	if !ok {
		return false
	}
	return e.labels[label].has(markerType)
}

// AllowedMarkables returns the markable types that markerType may mark with
// label. The result is empty for unknown markers or labels.
func (r *Registry) AllowedMarkables(markerType, label string) []string {
	m, ok := r.markers[markerType]
	if !ok {
		return []string{}
	}
	return m.targets[label].sorted()
}

// DeclaredLabels returns the labels declared for markableType, sorted.
func (r *Registry) DeclaredLabels(markableType string) []string {
	e, ok := r.markables[markableType]
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(e.labels))
	for label := range e.labels {
		out = append(out, label)
	}
	sort.Strings(out)
	return out
}

// MarkerTypes returns every declared marker type, sorted.
func (r *Registry) MarkerTypes() []string {
	out := make([]string, 0, len(r.markers))
	for t := range r.markers {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// MarkableTypes returns every declared markable type, sorted.
func (r *Registry) MarkableTypes() []string {
	out := make([]string, 0, len(r.markables))
	for t := range r.markables {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// MarkerLabels returns the labels markerType may apply to at least one
// markable type, sorted.
func (r *Registry) MarkerLabels(markerType string) []string {
	m, ok := r.markers[markerType]
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(m.targets))
	for label, targets := range m.targets {
		if len(targets) > 0 {
			out = append(out, label)
		}
	}
	sort.Strings(out)
	return out
}

// LabelDeclared reports whether any markable type declares label.
func (r *Registry) LabelDeclared(label string) bool {
	for _, e := range r.markables {
		if _, ok := e.labels[label]; ok {
			return true
		}
	}
	return false
}
