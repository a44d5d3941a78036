package endpoints

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/t569/scanapi/cmd/application"
	"github.com/t569/scanapi/internal/cmd/emoji"
)

func newFetchCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch <name>",
		Short: "Write the QR code of an endpoint to a file",
		Example: `  scanapi endpoints fetch docs --secret s3cret
  scanapi endpoints fetch docs --secret s3cret --out - > docs.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			secret, ok := secretFlag(cmd, "secret")
			if !ok {
				return fmt.Errorf("a secret is required (--secret or %s)", SecretEnv)
			}

			reg, err := app.Registry()
			if err != nil {
				return err
			}
			art, err := reg.Fetch(cmd.Context(), name, secret)
			if err != nil {
				return err
			}

			out, _ := cmd.Flags().GetString("out")
			if out == "-" {
				_, err := cmd.OutOrStdout().Write(art.Data)
				return err
			}
			if out == "" {
				out = name + ".png"
			}
			if err := os.WriteFile(out, art.Data, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", out, err)
			}
			cmd.Printf("%s Wrote %s (%d bytes)\n", emoji.Success, out, len(art.Data))
			return nil
		},
	}

	cmd.Flags().String("secret", "", "Endpoint secret")
	cmd.Flags().String("out", "", `Output file (default "<name>.png", "-" for stdout)`)

	return cmd
}
