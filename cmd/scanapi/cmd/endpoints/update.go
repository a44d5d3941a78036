package endpoints

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/t569/scanapi/cmd/application"
	"github.com/t569/scanapi/internal/cmd/emoji"
	"github.com/t569/scanapi/internal/cmd/output"
	"github.com/t569/scanapi/pkg/endpoints"
)

func newUpdateCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <name>",
		Short: "Update an endpoint",
		Long: `Update the URL or secret of an endpoint.

With update_policy=discard (the default) the update is accepted and
dropped. With update_policy=persist the current secret must be given
with --secret and the change is stored.`,
		Example: `  scanapi endpoints update docs --url https://example.com/v2 --secret s3cret
  scanapi endpoints update docs --new-secret n3w --secret s3cret`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var req endpoints.UpdateRequest
			if cmd.Flags().Changed("url") {
				u, _ := cmd.Flags().GetString("url")
				req.URL = &u
			}
			if s, ok := secretFlag(cmd, "new-secret"); ok {
				req.Secret = &s
			}
			if req.Empty() {
				return fmt.Errorf("nothing to update: pass --url or --new-secret")
			}
			current, _ := secretFlag(cmd, "secret")

			reg, err := app.Registry()
			if err != nil {
				return err
			}
			updated, err := reg.Update(cmd.Context(), args[0], current, req)
			if err != nil {
				return err
			}
			if updated == nil {
				cmd.Printf("Update for %q accepted; update_policy=discard stores nothing\n", args[0])
				return nil
			}

			cmd.Printf("%s Endpoint %q updated\n", emoji.Success, updated.Name)
			format := output.DetectFormat(app.OutputFormat())
			return output.FormatEndpoints(cmd.OutOrStdout(), []endpoints.Endpoint{*updated}, format)
		},
	}

	cmd.Flags().String("url", "", "New URL")
	cmd.Flags().String("new-secret", "", "New secret")
	cmd.Flags().String("secret", "", "Current secret (required with update_policy=persist)")

	return cmd
}
