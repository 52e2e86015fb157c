// JSONL export and import of the marks table.
package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func (a *app) newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "export <file>",
		Short:   "Write every mark to a JSONL file",
		Example: "  markable export marks.jsonl",
		Args:    args(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, argv []string) error {
			s, err := a.openSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			n, err := s.backend.ExportJSONL(cmd.Context(), argv[0])
			if err != nil {
				return err
			}
			return a.emit(cmd, map[string]int{"exported": n}, func(w io.Writer) {
				fmt.Fprintf(w, "exported %d mark(s) to %s\n", n, argv[0])
			})
		},
	}
}

func (a *app) newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Load marks from a JSONL file",
		Long: `Load marks from a JSONL file produced by export. Malformed lines and marks
that already exist are skipped, so importing the same file twice is harmless.
Imported marks are not checked against the declared types; run "orphans"
afterwards to clean up marks whose records are gone.`,
		Example: "  markable import marks.jsonl",
		Args:    args(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, argv []string) error {
			s, err := a.openSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			res, err := s.backend.ImportJSONL(cmd.Context(), argv[0])
			if err != nil {
				return err
			}
			return a.emit(cmd, res, func(w io.Writer) {
				fmt.Fprintf(w, "imported %d mark(s), skipped %d\n", res.Imported, res.Skipped)
			})
		},
	}
}
