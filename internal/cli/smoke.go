package cli

import (
	"fmt"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"github.com/bitminerobotics/platform/internal/smoke"
)

const baseURLFlag = "base-url"

func newSmokeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "smoke",
		Short: "Run HTTP smoke tests against a running API",
	}

	cmd.AddCommand(newSmokeCategoriesCommand())
	return cmd
}

func newSmokeCategoriesCommand() *cobra.Command {
	flags := map[string]cobraflags.Flag{
		baseURLFlag: &cobraflags.StringFlag{
			Name:  baseURLFlag,
			Value: "",
			Usage: "API base URL (falls back to SMOKE_BASE_URL, then http://localhost:5001)",
		},
		emailFlag: &cobraflags.StringFlag{
			Name:  emailFlag,
			Usage: "Admin email used to obtain a token (falls back to ADMIN_EMAIL)",
		},
		passwordFlag: &cobraflags.StringFlag{
			Name:  passwordFlag,
			Usage: "Admin password (falls back to ADMIN_PASSWORD)",
		},
	}

	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Create, rename and delete a category and subcategory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v := env()

			report, err := smoke.RunCategories(cmd.Context(), smoke.Config{
				BaseURL:  firstNonEmpty(flags[baseURLFlag].GetString(), v.GetString("smoke.base_url"), "http://localhost:5001"),
				Email:    firstNonEmpty(flags[emailFlag].GetString(), v.GetString("admin.email")),
				Password: firstNonEmpty(flags[passwordFlag].GetString(), v.GetString("admin.password")),
				Out:      cmd.OutOrStdout(),
			})
			if err != nil {
				return err
			}

			if !report.OK() {
				return fmt.Errorf("smoke: %d check(s) failed", report.Failed())
			}
			return nil
		},
	}

	cobraflags.RegisterMap(cmd, flags)
	return cmd
}
