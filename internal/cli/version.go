package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/markable/pkg/marks"
)

const modulePath = "github.com/mesh-intelligence/markable"

func (a *app) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the markable version",
		Args:  args(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "markable v%s\nmodule: %s\n", marks.Version, modulePath)
			return nil
		},
	}
}
