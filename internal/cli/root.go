package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// NewRootCommand assembles the fintrack command tree.
func NewRootCommand(version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "fintrack",
		Short: "Personal finance web front end",
		Long: `fintrack serves the personal finance dashboard: server-rendered pages and
htmx fragments backed by the finance REST API.

Settings come from the environment (and a .env file when present).`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			LoadEnvFile()
		},
	}

	root.AddCommand(serveCmd())
	root.AddCommand(migrateCmd())
	root.AddCommand(eventsCmd())

	return root
}

// Execute runs the command tree with ctx and returns the first error.
func Execute(ctx context.Context, version string, args []string) error {
	root := NewRootCommand(version)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}
