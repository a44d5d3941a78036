package endpoints

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/t569/scanapi/cmd/application"
	"github.com/t569/scanapi/internal/cmd/emoji"
	"github.com/t569/scanapi/pkg/endpoints"
)

func newCreateCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <name> <url>",
		Short: "Register an endpoint",
		Example: `  scanapi endpoints create docs https://example.com/docs --secret s3cret
  SCANAPI_SECRET=s3cret scanapi endpoints create docs https://example.com/docs`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, ok := secretFlag(cmd, "secret")
			if !ok || secret == "" {
				return fmt.Errorf("a secret is required (--secret or %s)", SecretEnv)
			}

			reg, err := app.Registry()
			if err != nil {
				return err
			}
			res, err := reg.Create(cmd.Context(), endpoints.CreateRequest{
				Name:   args[0],
				URL:    args[1],
				Secret: secret,
			})
			if err != nil {
				return err
			}

			if res.Created {
				cmd.Printf("%s Endpoint %q created\n", emoji.Success, res.Endpoint.Name)
			} else {
				cmd.Printf("Endpoint %q already exists, nothing written\n", res.Endpoint.Name)
			}
			return nil
		},
	}

	cmd.Flags().String("secret", "", "Secret required to fetch the QR code")

	return cmd
}
