// Commands that list marks.
package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/markable/pkg/types"
)

func printRefs(refs []types.Ref) func(io.Writer) {
	return func(w io.Writer) {
		for _, r := range refs {
			fmt.Fprintln(w, r)
		}
	}
}

func (a *app) newOnCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "on <markable> <label>",
		Short:   "List the markers that applied label to a record",
		Example: "  markable on food:pizza favorite",
		Args:    args(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, argv []string) error {
			markable, err := types.ParseRef(argv[0])
			if err != nil {
				return err
			}

			s, err := a.openSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			markers, err := s.service.MarksOn(cmd.Context(), markable, argv[1])
			if err != nil {
				return err
			}
			return a.emit(cmd, markers, printRefs(markers))
		},
	}
}

func (a *app) newByCmd() *cobra.Command {
	var markableType string
	cmd := &cobra.Command{
		Use:   "by <marker> <label>",
		Short: "List the records a marker applied label to",
		Long: `List the records marker applied label to, across every markable type on
which the marker may use label. --type restricts the listing to one type.`,
		Example: "  markable by user:1 favorite --type food",
		Args:    args(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, argv []string) error {
			marker, err := types.ParseRef(argv[0])
			if err != nil {
				return err
			}

			s, err := a.openSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			var markables []types.Ref
			if markableType != "" {
				markables, err = s.service.MarksByType(cmd.Context(), marker, markableType, argv[1])
			} else {
				markables, err = s.service.MarksBy(cmd.Context(), marker, argv[1])
			}
			if err != nil {
				return err
			}
			return a.emit(cmd, markables, printRefs(markables))
		},
	}
	cmd.Flags().StringVar(&markableType, "type", "", "only list markables of this type")
	return cmd
}

func (a *app) newLabelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "labels <marker> <markable>",
		Short:   "List every label a marker applied to a record",
		Example: "  markable labels user:1 food:pizza",
		Args:    args(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, argv []string) error {
			in, err := refs(argv)
			if err != nil {
				return err
			}

			s, err := a.openSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			labels, err := s.service.LabelsBetween(cmd.Context(), in[0], in[1])
			if err != nil {
				return err
			}
			return a.emit(cmd, labels, func(w io.Writer) {
				for _, l := range labels {
					fmt.Fprintln(w, l)
				}
			})
		},
	}
}
