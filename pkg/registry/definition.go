package registry

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Definition is the declarative form of a registry, as read from the
// "markers" and "markables" keys of config.yaml:
//
//	markers:
//	  - type: user
//	    name: user
//	markables:
//	  - type: food
//	    marks:
//	      favorite: [user]
//	      hated: [user]
//
// Table and IDColumn are optional and tell the CLI where live records of the
// type can be found when reconciling orphans.
type Definition struct {
	Markers   []MarkerDef   `mapstructure:"markers" yaml:"markers"`
	Markables []MarkableDef `mapstructure:"markables" yaml:"markables"`
}

// MarkerDef declares one marker type.
type MarkerDef struct {
	Type     string `mapstructure:"type" yaml:"type"`
	Name     string `mapstructure:"name" yaml:"name"`
	Table    string `mapstructure:"table" yaml:"table"`
	IDColumn string `mapstructure:"id_column" yaml:"id_column"`
}

// MarkableDef declares one markable type and its labels. Marks maps each
// label to the marker types allowed to apply it.
type MarkableDef struct {
	Type     string              `mapstructure:"type" yaml:"type"`
	Marks    map[string][]string `mapstructure:"marks" yaml:"marks"`
	Table    string              `mapstructure:"table" yaml:"table"`
	IDColumn string              `mapstructure:"id_column" yaml:"id_column"`
}

// Load builds and seals a registry from a definition. Every marker type
// named in a label must itself be declared as a marker.
func Load(def Definition, logger *logrus.Logger) (*Registry, error) {
	r := New(logger)

	for _, m := range def.Markers {
		if err := r.RegisterMarker(m.Type, m.Name); err != nil {
			return nil, fmt.Errorf("marker %q: %w", m.Type, err)
		}
	}

	for _, m := range def.Markables {
		labels := make(map[string]LabelConfig, len(m.Marks))
		for label, markers := range m.Marks {
			for _, markerType := range markers {
				if !r.IsMarker(markerType) {
					return nil, fmt.Errorf("markable %q, mark %q: marker type %q is not declared", m.Type, label, markerType)
				}
			}
			labels[label] = LabelConfig{AllowedMarkers: markers}
		}
		if err := r.RegisterMarkable(m.Type, labels); err != nil {
			return nil, fmt.Errorf("markable %q: %w", m.Type, err)
		}
	}

	r.Seal()
	return r, nil
}

// Location names the table and id column holding live records of a type.
type Location struct {
	Table    string
	IDColumn string
}

// Tables returns where live records of each type are stored, as declared in
// the definition. Types without a table are omitted; a missing id column
// defaults to "id".
func (d Definition) Tables() map[string]Location {
	out := make(map[string]Location)
	add := func(typeID, table, idColumn string) {
		if table == "" {
			return
		}
		if idColumn == "" {
			idColumn = "id"
		}
		out[typeID] = Location{Table: table, IDColumn: idColumn}
	}
	for _, m := range d.Markers {
		add(m.Type, m.Table, m.IDColumn)
	}
	for _, m := range d.Markables {
		add(m.Type, m.Table, m.IDColumn)
	}
	return out
}
