package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
)

// ClickhouseExecer is the slice of a ClickHouse connection the applier needs.
type ClickhouseExecer interface {
	Exec(ctx context.Context, query string, args ...interface{}) error
}

// ApplyClickhouse runs every embedded ClickHouse migration against db.
// The native protocol rejects multi-statement queries, so each file is
// split into single statements first.
func ApplyClickhouse(ctx context.Context, db ClickhouseExecer) error {
	files, err := sqlFiles("clickhouse")
	if err != nil {
		return fmt.Errorf("list clickhouse migrations: %w", err)
	}

	for _, name := range files {
		data, err := fs.ReadFile(schemaFS, "clickhouse/"+name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		stmts, err := splitStatements(string(data))
		if err != nil {
			return fmt.Errorf("split migration %s: %w", name, err)
		}
		for _, stmt := range stmts {
			if err := db.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("apply migration %s: %w", name, err)
			}
		}
	}

	return nil
}

// splitStatements cuts SQL into single statements on semicolons outside
// string literals. Only whole-line "--" comments are recognized; they are
// dropped before scanning so a commented-out semicolon cannot end a
// statement. An unterminated literal is an error, since the split would be
// wrong somewhere before end of file.
func splitStatements(input string) ([]string, error) {
	var lines []string
	for _, line := range strings.Split(input, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		lines = append(lines, line)
	}
	sql := strings.Join(lines, "\n")

	var stmts []string
	var cur strings.Builder
	inString := false
	for i := 0; i < len(sql); i++ {
		ch := sql[i]
		switch {
		case ch == '\'':
			// '' escapes a quote inside a literal
			if inString && i+1 < len(sql) && sql[i+1] == '\'' {
				cur.WriteByte(ch)
				cur.WriteByte(sql[i+1])
				i++
				continue
			}
			inString = !inString
			cur.WriteByte(ch)
		case ch == ';' && !inString:
			if stmt := strings.TrimSpace(cur.String()); stmt != "" {
				stmts = append(stmts, stmt)
			}
			cur.Reset()
		default:
			cur.WriteByte(ch)
		}
	}
	if inString {
		return nil, fmt.Errorf("unterminated string literal")
	}
	if stmt := strings.TrimSpace(cur.String()); stmt != "" {
		stmts = append(stmts, stmt)
	}

	return stmts, nil
}

// DatabaseFromDSN extracts the database name from a clickhouse:// DSN.
func DatabaseFromDSN(dsn string) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parse clickhouse dsn: %w", err)
	}
	db := strings.TrimPrefix(u.Path, "/")
	if db == "" {
		return "", fmt.Errorf("clickhouse dsn names no database")
	}
	return db, nil
}
