// Package migrations ships the database schema as embedded SQL and applies
// it in lexical file order. The appliers take plain statement-execution
// interfaces instead of the concrete store types, so the store packages can
// run them from their own tests without an import cycle.
//
// Every migration file must be idempotent; re-applying the full set is the
// supported upgrade path.
package migrations

import (
	"embed"
	"io/fs"
	"sort"
	"strings"
)

//go:embed postgres/*.sql clickhouse/*.sql
var schemaFS embed.FS

// sqlFiles lists the .sql files under dir in apply order.
func sqlFiles(dir string) ([]string, error) {
	entries, err := fs.ReadDir(schemaFS, dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
