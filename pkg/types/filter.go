package types

// Filter selects marks by a conjunction of optional fields. An empty string
// means "any". IDs restricts the match to explicit mark ids; a nil slice means
// "any id" while a non-nil empty slice matches nothing.
type Filter struct {
	MarkerType   string
	MarkerID     string
	MarkableType string
	MarkableID   string
	Label        string
	IDs          []string
}

// ByMarker returns a filter on the marker reference and label. An empty label
// matches every label.
func ByMarker(marker Ref, label string) Filter {
	return Filter{MarkerType: marker.Type, MarkerID: marker.ID, Label: label}
}

// ByMarkable returns a filter on the markable reference and label. An empty
// label matches every label.
func ByMarkable(markable Ref, label string) Filter {
	return Filter{MarkableType: markable.Type, MarkableID: markable.ID, Label: label}
}

// Exact returns a filter matching one (marker, markable, label) triple.
func Exact(marker, markable Ref, label string) Filter {
	return Filter{
		MarkerType:   marker.Type,
		MarkerID:     marker.ID,
		MarkableType: markable.Type,
		MarkableID:   markable.ID,
		Label:        label,
	}
}

// IsEmpty reports whether the filter matches every mark.
func (f Filter) IsEmpty() bool {
	return f.MarkerType == "" && f.MarkerID == "" &&
		f.MarkableType == "" && f.MarkableID == "" &&
		f.Label == "" && f.IDs == nil
}

// Match reports whether m satisfies the filter.
func (f Filter) Match(m *Mark) bool {
	if f.MarkerType != "" && m.Marker.Type != f.MarkerType {
		return false
	}
	if f.MarkerID != "" && m.Marker.ID != f.MarkerID {
		return false
	}
	if f.MarkableType != "" && m.Markable.Type != f.MarkableType {
		return false
	}
	if f.MarkableID != "" && m.Markable.ID != f.MarkableID {
		return false
	}
	if f.Label != "" && m.Label != f.Label {
		return false
	}
	if f.IDs != nil {
		for _, id := range f.IDs {
			if id == m.MarkID {
				return true
			}
		}
		return false
	}
	return true
}
