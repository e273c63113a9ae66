package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/go-extras/cobraflags"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/bitminerobotics/platform/internal/db"
	"github.com/bitminerobotics/platform/internal/observability"
	"github.com/bitminerobotics/platform/internal/repo/postgres"
)

const (
	emailFlag       = "email"
	passwordFlag    = "password"
	nameFlag        = "name"
	databaseURLFlag = "database-url"
)

func newSeedAdminCommand() *cobra.Command {
	flags := map[string]cobraflags.Flag{
		emailFlag: &cobraflags.StringFlag{
			Name:  emailFlag,
			Usage: "Admin email (falls back to ADMIN_EMAIL)",
		},
		passwordFlag: &cobraflags.StringFlag{
			Name:  passwordFlag,
			Usage: "Admin password (falls back to ADMIN_PASSWORD)",
		},
		nameFlag: &cobraflags.StringFlag{
			Name:  nameFlag,
			Usage: "Display name (falls back to ADMIN_NAME, then \"Admin\")",
		},
		databaseURLFlag: &cobraflags.StringFlag{
			Name:  databaseURLFlag,
			Usage: "Postgres URL (falls back to DATABASE_URL / DB_*)",
		},
	}

	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create an admin account unless the email is already registered",
		Long: `Create an admin account. If an account with the email already exists
nothing is written and the command exits with status 1.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v := env()
			seed := db.AdminSeed{
				Email:    firstNonEmpty(flags[emailFlag].GetString(), v.GetString("admin.email")),
				Password: firstNonEmpty(flags[passwordFlag].GetString(), v.GetString("admin.password")),
				Name:     firstNonEmpty(flags[nameFlag].GetString(), v.GetString("admin.name")),
			}

			ctx := cmd.Context()
			pool, err := openPool(ctx, flags[databaseURLFlag].GetString())
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer pool.Close()

			store := postgres.NewUsersRepo(pool, observability.NewProm(prometheus.NewRegistry()))
			return seedAdmin(ctx, store, seed, cmd.OutOrStdout())
		},
	}

	cobraflags.RegisterMap(cmd, flags)
	return cmd
}

func seedAdmin(ctx context.Context, store db.UserStore, seed db.AdminSeed, out io.Writer) error {
	u, err := db.SeedAdmin(ctx, store, seed)
	if errors.Is(err, db.ErrAdminExists) {
		fmt.Fprintf(out, "admin %s already exists, nothing to do\n", seed.Email)
		return err
	}
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	fmt.Fprintf(out, "created admin %s (id %d)\n", u.Email, u.ID)
	return nil
}
