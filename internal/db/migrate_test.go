package db

import (
	"testing"
	"testing/fstest"

	qt "github.com/frankban/quicktest"
	"github.com/stokaro/ptah/migration/migrator"

	"github.com/bitminerobotics/platform/internal/db/migrations"
)

func TestLoadMigrations_SortsAndPairs(t *testing.T) {
	c := qt.New(t)

	fsys := fstest.MapFS{
		"0000000002_catalog.up.sql":   {Data: []byte("CREATE TABLE b();")},
		"0000000002_catalog.down.sql": {Data: []byte("DROP TABLE b;")},
		"0000000001_users.up.sql":     {Data: []byte("CREATE TABLE a();")},
		"0000000001_users.down.sql":   {Data: []byte("DROP TABLE a;")},
		"README.md":                   {Data: []byte("ignored")},
	}

	versions, err := LoadMigrations(fsys)
	c.Assert(err, qt.IsNil)
	c.Assert(versions, qt.DeepEquals, []int{1, 2})
}

func TestLoadMigrations_IncompletePair(t *testing.T) {
	c := qt.New(t)

	fsys := fstest.MapFS{
		"0000000001_users.up.sql": {Data: []byte("CREATE TABLE a();")},
	}

	_, err := LoadMigrations(fsys)
	c.Assert(err, qt.ErrorMatches, `load migrations: incomplete migrations.*\[1\]`)
}

func TestLoadMigrations_Empty(t *testing.T) {
	c := qt.New(t)

	_, err := LoadMigrations(fstest.MapFS{"0001_short.up.sql": {Data: []byte("SELECT 1;")}})
	c.Assert(err, qt.ErrorMatches, `load migrations: no .* files found`)
}

func TestLoadMigrations_EmbeddedSchema(t *testing.T) {
	c := qt.New(t)

	versions, err := LoadMigrations(migrations.FS)
	c.Assert(err, qt.IsNil)
	c.Assert(len(versions) >= 3, qt.IsTrue)

	for i, v := range versions {
		c.Assert(v, qt.Equals, i+1)
	}
}

func TestToStatus(t *testing.T) {
	c := qt.New(t)

	st := toStatus(&migrator.MigrationStatus{CurrentVersion: 2, PendingMigrations: []int{3}, TotalMigrations: 3})
	c.Assert(st.CurrentVersion, qt.Equals, 2)
	c.Assert(st.Pending, qt.DeepEquals, []int{3})
	c.Assert(st.Total, qt.Equals, 3)

	st = toStatus(&migrator.MigrationStatus{TotalMigrations: 3})
	c.Assert(st.CurrentVersion, qt.Equals, 0)
	c.Assert(st.Pending, qt.DeepEquals, []int{})
}

func TestMergePoolOptions(t *testing.T) {
	c := qt.New(t)

	got := mergePoolOptions(defaultPoolOptions, PoolOptions{MaxConns: 25})

	c.Assert(got.MaxConns, qt.Equals, int32(25))
	c.Assert(got.MinConns, qt.Equals, defaultPoolOptions.MinConns)
	c.Assert(got.ConnectTimeout, qt.Equals, defaultPoolOptions.ConnectTimeout)
}

func TestURLHasParam(t *testing.T) {
	c := qt.New(t)

	c.Assert(urlHasParam("postgres://u:p@h/db?pool_max_conns=4", "pool_max_conns"), qt.IsTrue)
	c.Assert(urlHasParam("host=h pool_max_conns=4", "pool_max_conns"), qt.IsTrue)
	c.Assert(urlHasParam("postgres://u:p@h/db", "pool_max_conns"), qt.IsFalse)
}
