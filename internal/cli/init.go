package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/markable/internal/sqlite"
)

func (a *app) newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize markable storage",
		Long:  "Create the configuration and data directories, write a default config.yaml if none exists, and create the marks table.",
		Args:  args(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.prepare(cmd)
			if err != nil {
				return err
			}

			backend := sqlite.NewBackend(s.log)
			if err := backend.Attach(s.storeConfig()); err != nil {
				return fmt.Errorf("initialize storage: %w", err)
			}
			if err := backend.Detach(); err != nil {
				return fmt.Errorf("finalize storage: %w", err)
			}

			out := map[string]string{"config": s.configDir, "data": s.dataDir}
			return a.emit(cmd, out, func(w io.Writer) {
				fmt.Fprintln(w, "markable initialized successfully")
				fmt.Fprintln(w, "  config:", s.configDir)
				fmt.Fprintln(w, "  data:  ", s.dataDir)
			})
		},
	}
}
