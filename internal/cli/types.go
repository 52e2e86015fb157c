package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/markable/pkg/registry"
)

type markerInfo struct {
	Type   string   `json:"type"`
	Name   string   `json:"name"`
	Labels []string `json:"labels"`
}

type markableInfo struct {
	Type  string              `json:"type"`
	Marks map[string][]string `json:"marks"`
}

type typesInfo struct {
	Markers   []markerInfo   `json:"markers"`
	Markables []markableInfo `json:"markables"`
}

func describeRegistry(reg *registry.Registry) typesInfo {
	info := typesInfo{Markers: []markerInfo{}, Markables: []markableInfo{}}
	for _, t := range reg.MarkerTypes() {
		name, _ := reg.MarkerName(t)
		info.Markers = append(info.Markers, markerInfo{Type: t, Name: name, Labels: reg.MarkerLabels(t)})
	}
	for _, t := range reg.MarkableTypes() {
		m := markableInfo{Type: t, Marks: make(map[string][]string)}
		for _, label := range reg.DeclaredLabels(t) {
			allowed, _ := reg.AllowedMarkers(t, label)
			m.Marks[label] = allowed
		}
		info.Markables = append(info.Markables, m)
	}
	return info
}

func (a *app) newTypesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "Show the declared marker and markable types",
		Args:  args(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.prepare(cmd)
			if err != nil {
				return err
			}
			reg, err := registry.Load(s.settings.Definition, s.log)
			if err != nil {
				return usageError{fmt.Errorf("config: %w", err)}
			}

			info := describeRegistry(reg)
			return a.emit(cmd, info, func(w io.Writer) {
				fmt.Fprintln(w, "markers:")
				for _, m := range info.Markers {
					fmt.Fprintf(w, "  %s (%s): %s\n", m.Type, m.Name, strings.Join(m.Labels, ", "))
				}
				fmt.Fprintln(w, "markables:")
				for _, m := range info.Markables {
					fmt.Fprintf(w, "  %s\n", m.Type)
					for _, label := range sortedKeys(m.Marks) {
						fmt.Fprintf(w, "    %s: %s\n", label, strings.Join(m.Marks[label], ", "))
					}
				}
			})
		},
	}
}
