// Package cli implements the markable command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/markable/pkg/marks"
	"github.com/mesh-intelligence/markable/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values shared by all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
	logLevel  string
}

// app carries the flags of one command tree.
type app struct {
	flags rootFlags
}

// NewRootCmd creates the top-level "markable" command with global flags and
// every subcommand registered.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "markable",
		Short: "Polymorphic marks between typed records",
		Long: `markable stores labelled marks (favorite, hated, ...) that one kind of
record applies to another, validated against the marker and markable types
declared in config.yaml.

Records are named as type:id, for example user:42 or food:pizza.`,
		Version:       marks.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: platform config dir, or $MARKABLE_CONFIG_DIR)")
	root.PersistentFlags().StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: $(CWD)/.markable-db)")
	root.PersistentFlags().BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")
	root.PersistentFlags().StringVar(&a.flags.logLevel, "log-level", "", "log level: debug, info, warn, error (default: config log_level)")

	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})

	root.AddCommand(a.newVersionCmd())
	root.AddCommand(a.newInitCmd())
	root.AddCommand(a.newMarkCmd())
	root.AddCommand(a.newUnmarkCmd())
	root.AddCommand(a.newHasCmd())
	root.AddCommand(a.newOnCmd())
	root.AddCommand(a.newByCmd())
	root.AddCommand(a.newLabelsCmd())
	root.AddCommand(a.newTypesCmd())
	root.AddCommand(a.newOrphansCmd())
	root.AddCommand(a.newPurgeCmd())
	root.AddCommand(a.newExportCmd())
	root.AddCommand(a.newImportCmd())

	return root
}

// Execute runs the root command and exits with the matching code.
func Execute() {
	os.Exit(run(NewRootCmd(), os.Args[1:], os.Stderr))
}

// run executes root with argv and returns the process exit code.
func run(root *cobra.Command, argv []string, stderr io.Writer) int {
	root.SetArgs(argv)
	err := root.Execute()
	if err != nil {
		fmt.Fprintln(stderr, "markable:", err)
	}
	return exitCode(err)
}

// usageError marks a failure caused by the command line itself.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

// args wraps a cobra argument validator so its failures count as user errors.
func args(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, a []string) error {
		if err := fn(cmd, a); err != nil {
			return usageError{err}
		}
		return nil
	}
}

// exitCode maps an error to exit status 1 for caller mistakes and 2 for
// everything else.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ue usageError
	switch {
	case errors.As(err, &ue),
		types.IsValidationError(err),
		errors.Is(err, types.ErrInvalidRef),
		errors.Is(err, types.ErrInvalidLabel),
		errors.Is(err, types.ErrInvalidData),
		errors.Is(err, types.ErrNoResolver),
		errors.Is(err, types.ErrBackendEmpty),
		errors.Is(err, types.ErrBackendUnknown):
		return exitUserError
	default:
		return exitSysError
	}
}
