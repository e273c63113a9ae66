// Package migrations embeds the SQL schema files applied by db.Migrator.
// Files follow NNNNNNNNNN_name.up.sql / NNNNNNNNNN_name.down.sql.
package migrations

import (
	"embed"
	"io/fs"

	"github.com/go-extras/go-kit/must"
)

//go:embed sql/*.sql
var embedded embed.FS

// FS is rooted at the sql directory.
var FS fs.FS = must.Must(fs.Sub(embedded, "sql"))
