// Package endpoints provides the endpoints command and its subcommands,
// which work on the registry directly rather than through the HTTP API.
package endpoints

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/t569/scanapi/cmd/application"
)

// SecretEnv supplies the endpoint secret when --secret is not given.
const SecretEnv = "SCANAPI_SECRET"

// NewCommand creates the endpoints command using app context.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "endpoints",
		Aliases: []string{"endpoint", "ep"},
		Short:   "Manage registered endpoints",
		Long: `Manage the endpoint registry.

These commands open the configured store directly (see database_path and
store_driver), so they work without a running server.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newListCommand(app))
	cmd.AddCommand(newCreateCommand(app))
	cmd.AddCommand(newFetchCommand(app))
	cmd.AddCommand(newUpdateCommand(app))

	return cmd
}

// secretFlag reads --secret, falling back to SCANAPI_SECRET.
func secretFlag(cmd *cobra.Command, name string) (string, bool) {
	if cmd.Flags().Changed(name) {
		v, _ := cmd.Flags().GetString(name)
		return v, true
	}
	if v, ok := os.LookupEnv(SecretEnv); ok && name == "secret" {
		return v, true
	}
	return "", false
}
