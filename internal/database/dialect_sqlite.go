package database

import (
	_ "modernc.org/sqlite"
)

// SQLiteDialect implements Dialect for SQLite, the default backend.
type SQLiteDialect struct{}

func (d *SQLiteDialect) DriverName() string             { return "sqlite" }
func (d *SQLiteDialect) DSN(pathOrConnStr string) string { return pathOrConnStr }
func (d *SQLiteDialect) Placeholder(index int) string    { return "?" }

func (d *SQLiteDialect) CreateTableSQL() string {
	return `CREATE TABLE IF NOT EXISTS span_logs (
		id TEXT PRIMARY KEY,
		saved_at INTEGER,
		message_count INTEGER,
		cid_count INTEGER,
		cids TEXT,
		content TEXT,
		sip_bookmarks TEXT,
		kazimir_bookmarks TEXT
	)`
}

func (d *SQLiteDialect) CreateIndexSQL() string {
	return "CREATE INDEX IF NOT EXISTS saved_at_idx ON span_logs (saved_at)"
}
