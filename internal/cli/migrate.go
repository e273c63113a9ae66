package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"github.com/bitminerobotics/platform/internal/config"
	"github.com/bitminerobotics/platform/internal/db"
	"github.com/bitminerobotics/platform/internal/db/migrations"
)

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate [up|down|status]",
		Short: "Apply, revert or inspect schema migrations",
	}

	cmd.AddCommand(newMigrateSubcommand("up", "Apply all pending migrations", func(m *db.Migrator, cmd *cobra.Command, out io.Writer) error {
		n, err := m.Up(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "applied %d migration(s)\n", n)
		return nil
	}))

	cmd.AddCommand(newMigrateSubcommand("down", "Revert the most recent migration", func(m *db.Migrator, cmd *cobra.Command, out io.Writer) error {
		version, err := m.Down(cmd.Context())
		if errors.Is(err, db.ErrNoMigrationApplied) {
			fmt.Fprintln(out, "nothing to revert")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "reverted version %d\n", version)
		return nil
	}))

	cmd.AddCommand(newMigrateSubcommand("status", "Show the current version and pending migrations", func(m *db.Migrator, cmd *cobra.Command, out io.Writer) error {
		st, err := m.Status(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "current version: %d\npending: %v\ntotal: %d\n", st.CurrentVersion, st.Pending, st.Total)
		return nil
	}))

	return cmd
}

func newMigrateSubcommand(use, short string, run func(*db.Migrator, *cobra.Command, io.Writer) error) *cobra.Command {
	flags := map[string]cobraflags.Flag{
		databaseURLFlag: &cobraflags.StringFlag{
			Name:  databaseURLFlag,
			Usage: "Postgres URL (falls back to DATABASE_URL / DB_*)",
		},
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dbURL := firstNonEmpty(flags[databaseURLFlag].GetString(), config.Load().DBURL)
			m, err := db.OpenMigrator(cmd.Context(), dbURL, migrations.FS, newLogger())
			if err != nil {
				return err
			}
			defer m.Close()

			return run(m, cmd, cmd.OutOrStdout())
		},
	}

	cobraflags.RegisterMap(cmd, flags)
	return cmd
}
