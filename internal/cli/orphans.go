// Maintenance commands: orphan reconciliation and reference purge.
package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/markable/pkg/sqlite"
	"github.com/mesh-intelligence/markable/pkg/types"
)

func (a *app) newOrphansCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "orphans",
		Short: "Delete marks whose records no longer exist",
		Long: `Scan every mark and look up its marker and markable in the host tables
declared in config.yaml (table and id_column per type). Marks referring to a
missing record are deleted. Every type that appears in a mark must declare a
table; otherwise the scan stops without deleting anything.`,
		Args: args(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.openSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			resolvers, err := sqlite.Resolvers(s.backend, s.settings.Tables())
			if err != nil {
				return usageError{fmt.Errorf("config: %w", err)}
			}
			rec := s.service.Reconciler(resolvers)

			if dryRun {
				orphans, err := rec.FindOrphans(cmd.Context())
				if err != nil {
					return err
				}
				return a.emit(cmd, orphans, func(w io.Writer) {
					for _, m := range orphans {
						fmt.Fprintf(w, "%s %s %s (%s)\n", m.Marker, m.Label, m.Markable, m.MarkID)
					}
					fmt.Fprintf(w, "%d orphan mark(s)\n", len(orphans))
				})
			}

			n, err := rec.DeleteOrphans(cmd.Context())
			if err != nil {
				return err
			}
			return a.emit(cmd, map[string]int{"deleted": n}, func(w io.Writer) {
				fmt.Fprintf(w, "deleted %d orphan mark(s)\n", n)
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list orphans without deleting them")
	return cmd
}

func (a *app) newPurgeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge <ref>",
		Short: "Delete every mark made by or on a record",
		Long: `Delete every mark in which ref is the marker or the markable. Run it when
a record is destroyed outside of an application that calls DeleteReferences.`,
		Example: "  markable purge food:pizza",
		Args:    args(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, argv []string) error {
			ref, err := types.ParseRef(argv[0])
			if err != nil {
				return err
			}

			s, err := a.openSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			n, err := s.service.DeleteReferences(cmd.Context(), ref)
			if err != nil {
				return err
			}
			return a.emit(cmd, map[string]int{"deleted": n}, func(w io.Writer) {
				fmt.Fprintf(w, "deleted %d mark(s) of %s\n", n, ref)
			})
		},
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
