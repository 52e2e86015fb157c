// Commands that write or test single marks.
package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/markable/pkg/types"
)

func (a *app) newMarkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mark <marker> <label> <markable>...",
		Short: "Apply a mark to one or more records",
		Long: `Apply label from marker to every markable. Every combination is validated
before anything is written; marks that already exist are left as they are.`,
		Example: "  markable mark user:1 favorite food:pizza food:sushi",
		Args:    args(cobra.MinimumNArgs(3)),
		RunE: func(cmd *cobra.Command, argv []string) error {
			marker, err := types.ParseRef(argv[0])
			if err != nil {
				return err
			}
			markables, err := refs(argv[2:])
			if err != nil {
				return err
			}

			s, err := a.openSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			added, err := s.service.AddMarks(cmd.Context(), marker, markables, argv[1])
			if err != nil {
				return err
			}
			return a.emit(cmd, added, func(w io.Writer) {
				for _, m := range added {
					fmt.Fprintf(w, "%s %s %s (%s)\n", m.Marker, m.Label, m.Markable, m.MarkID)
				}
			})
		},
	}
}

func (a *app) newUnmarkCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "unmark <marker> <label> <markable>...",
		Short:   "Remove a mark from one or more records",
		Example: "  markable unmark user:1 favorite food:pizza",
		Args:    args(cobra.MinimumNArgs(3)),
		RunE: func(cmd *cobra.Command, argv []string) error {
			marker, err := types.ParseRef(argv[0])
			if err != nil {
				return err
			}
			markables, err := refs(argv[2:])
			if err != nil {
				return err
			}

			s, err := a.openSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			n, err := s.service.RemoveMarks(cmd.Context(), marker, markables, argv[1])
			if err != nil {
				return err
			}
			return a.emit(cmd, map[string]int{"removed": n}, func(w io.Writer) {
				fmt.Fprintf(w, "removed %d mark(s)\n", n)
			})
		},
	}
}

func (a *app) newHasCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "has <marker> <label> <markable>",
		Short:   "Report whether a mark exists",
		Example: "  markable has user:1 favorite food:pizza",
		Args:    args(cobra.ExactArgs(3)),
		RunE: func(cmd *cobra.Command, argv []string) error {
			in, err := refs([]string{argv[0], argv[2]})
			if err != nil {
				return err
			}

			s, err := a.openSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			has, err := s.service.HasMark(cmd.Context(), in[0], in[1], argv[1])
			if err != nil {
				return err
			}
			return a.emit(cmd, map[string]bool{"marked": has}, func(w io.Writer) {
				fmt.Fprintln(w, has)
			})
		},
	}
}
