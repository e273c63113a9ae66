// Package cli holds the bitminectl commands: admin bootstrap, schema
// migrations and the developer verification scripts.
package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bitminerobotics/platform/internal/config"
	"github.com/bitminerobotics/platform/internal/db"
	"github.com/bitminerobotics/platform/internal/observability"
)

func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "bitminectl",
		Short:         "Operational tooling for the BitMine Robotics platform",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newSeedAdminCommand())
	root.AddCommand(newMigrateCommand())
	root.AddCommand(newSmokeCommand())
	root.AddCommand(newVerifyCommand())
	return root
}

// env resolves flag fallbacks from the process environment (and .env,
// loaded by config.Load).
func env() *viper.Viper {
	v := viper.New()
	_ = v.BindEnv("admin.email", "ADMIN_EMAIL")
	_ = v.BindEnv("admin.password", "ADMIN_PASSWORD")
	_ = v.BindEnv("admin.name", "ADMIN_NAME")
	_ = v.BindEnv("smoke.base_url", "SMOKE_BASE_URL")
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func openPool(ctx context.Context, dbURL string) (*pgxpool.Pool, error) {
	cfg := config.Load()
	return db.NewPool(ctx, firstNonEmpty(dbURL, cfg.DBURL))
}

// stderr keeps command output on stdout clean
func newLogger() *slog.Logger {
	cfg := config.Load()
	return observability.NewLoggerTo(os.Stderr, cfg.Env, cfg.LogLevel)
}
