package db

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/stokaro/ptah/dbschema"
	"github.com/stokaro/ptah/migration/migrator"
)

var ErrNoMigrationApplied = errors.New("no migration applied")

type MigrationStatus struct {
	CurrentVersion int   `json:"currentVersion"`
	Pending        []int `json:"pending"`
	Total          int   `json:"total"`
}

// Migrator applies the embedded schema through ptah's filesystem migrator.
// It owns its own database/sql connection, separate from the API pool.
type Migrator struct {
	conn *dbschema.DatabaseConnection
	m    *migrator.Migrator
}

// OpenMigrator connects to dbURL and loads NNNNNNNNNN_name.up/down.sql pairs
// from fsys. The caller must Close it.
func OpenMigrator(ctx context.Context, dbURL string, fsys fs.FS, log *slog.Logger) (*Migrator, error) {
	if _, err := LoadMigrations(fsys); err != nil {
		return nil, err
	}

	conn, err := dbschema.ConnectToDatabase(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("connect for migrations: %w", err)
	}

	m, err := migrator.NewFSMigrator(conn, fsys)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("load migrations: %w", err)
	}
	if log != nil {
		m = m.WithLogger(log)
	}

	return &Migrator{conn: conn, m: m}, nil
}

// LoadMigrations parses fsys the way the migrator will and returns the
// versions in order. It fails on unpaired files and on an empty set.
func LoadMigrations(fsys fs.FS) ([]int, error) {
	p, err := migrator.NewFSMigrationProvider(fsys)
	if err != nil {
		return nil, fmt.Errorf("load migrations: %w", err)
	}

	migs := p.Migrations()
	if len(migs) == 0 {
		return nil, errors.New("load migrations: no NNNNNNNNNN_name.up.sql files found")
	}

	versions := make([]int, 0, len(migs))
	for _, mig := range migs {
		versions = append(versions, mig.Version)
	}
	return versions, nil
}

func (m *Migrator) Close() error {
	return m.conn.Close()
}

// Up applies every pending migration, each in its own transaction, and
// returns how many were applied.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	before, err := m.m.GetPendingMigrations(ctx)
	if err != nil {
		return 0, err
	}
	if err := m.m.MigrateUp(ctx); err != nil {
		return 0, err
	}
	return len(before), nil
}

// Down reverts the most recently applied migration and returns its version.
func (m *Migrator) Down(ctx context.Context) (int, error) {
	current, err := m.m.GetCurrentVersion(ctx)
	if err != nil {
		return 0, err
	}
	if current == 0 {
		return 0, ErrNoMigrationApplied
	}

	if err := m.m.MigrateDown(ctx); err != nil {
		return 0, err
	}
	return current, nil
}

func (m *Migrator) Status(ctx context.Context) (MigrationStatus, error) {
	st, err := m.m.GetMigrationStatus(ctx)
	if err != nil {
		return MigrationStatus{}, err
	}
	return toStatus(st), nil
}

func toStatus(st *migrator.MigrationStatus) MigrationStatus {
	pending := st.PendingMigrations
	if pending == nil {
		pending = []int{}
	}
	return MigrationStatus{
		CurrentVersion: st.CurrentVersion,
		Pending:        pending,
		Total:          st.TotalMigrations,
	}
}
