// Output helpers for the markable CLI.
package cli

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"
)

// emit writes v as indented JSON in --json mode and calls text otherwise.
func (a *app) emit(cmd *cobra.Command, v any, text func(w io.Writer)) error {
	w := cmd.OutOrStdout()
	if a.flags.jsonMode {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(w)
	return nil
}
