package cmd

import (
	"github.com/spf13/cobra"
)

// NewRootCmd builds the CLI. Running it without a subcommand starts the server.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "marketplace-auth",
		Short:         "Marketplace authentication service",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runServe,
	}

	root.AddCommand(NewServeCmd())
	root.AddCommand(NewMigrateCmd())

	return root
}
