// Package serve provides HTTP server commands for the scanapi CLI.
package serve

import (
	"github.com/spf13/cobra"

	"github.com/t569/scanapi/cmd/application"
)

// NewCommand creates the serve command. Without a subcommand it serves the API.
func NewCommand(app application.Application) *cobra.Command {
	api := NewAPICommand(app)

	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"server"},
		Short:   "Start the scanapi HTTP server",
		Long: `Start the scanapi HTTP server.

"scanapi serve" is shorthand for "scanapi serve api".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAPI(cmd, args, app)
		},
	}
	addAPIFlags(cmd)
	cmd.AddCommand(api)

	return cmd
}
