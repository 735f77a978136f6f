package database

import (
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresDialect implements Dialect for PostgreSQL, selected by config for
// shared/team deployments of the saved-log store.
type PostgresDialect struct{}

func (d *PostgresDialect) DriverName() string             { return "pgx" }
func (d *PostgresDialect) DSN(pathOrConnStr string) string { return pathOrConnStr }

func (d *PostgresDialect) Placeholder(index int) string {
	return fmt.Sprintf("$%d", index)
}

func (d *PostgresDialect) CreateTableSQL() string {
	return `CREATE TABLE IF NOT EXISTS span_logs (
		id TEXT PRIMARY KEY,
		saved_at BIGINT,
		message_count INT,
		cid_count INT,
		cids TEXT,
		content TEXT,
		sip_bookmarks TEXT,
		kazimir_bookmarks TEXT
	)`
}

func (d *PostgresDialect) CreateIndexSQL() string {
	return "CREATE INDEX IF NOT EXISTS saved_at_idx ON span_logs (saved_at)"
}
