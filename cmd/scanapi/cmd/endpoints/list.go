package endpoints

import (
	"github.com/spf13/cobra"

	"github.com/t569/scanapi/cmd/application"
	"github.com/t569/scanapi/internal/cmd/output"
	"github.com/t569/scanapi/internal/validation"
)

func newListCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List registered endpoints",
		Example: `  scanapi endpoints list
  scanapi endpoints list --skip 100 --limit 50 -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			skip, _ := cmd.Flags().GetString("skip")
			limit, _ := cmd.Flags().GetString("limit")
			page, err := validation.ParsePage(skip, limit)
			if err != nil {
				return err
			}

			reg, err := app.Registry()
			if err != nil {
				return err
			}
			eps, err := reg.List(cmd.Context(), page)
			if err != nil {
				return err
			}

			format := output.DetectFormat(app.OutputFormat())
			return output.FormatEndpoints(cmd.OutOrStdout(), eps, format)
		},
	}

	cmd.Flags().String("skip", "0", "Number of endpoints to skip")
	cmd.Flags().String("limit", "100", "Maximum number of endpoints to list (max 1000)")

	return cmd
}
