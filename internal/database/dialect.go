package database

// Dialect abstracts the database-specific SQL details of the saved-log
// store. Both backends share the same schema shape; only driver naming,
// placeholders, and DDL types differ.
type Dialect interface {
	// DriverName returns the database/sql driver name ("sqlite", "pgx").
	DriverName() string

	// DSN returns the data source name for opening a connection.
	// For SQLite this is the file path; for PostgreSQL a connection string.
	DSN(pathOrConnStr string) string

	// Placeholder returns the parameter placeholder for the given
	// 1-based index. SQLite: "?", PostgreSQL: "$1", "$2", ...
	Placeholder(index int) string

	// CreateTableSQL returns the DDL for the span_logs table.
	CreateTableSQL() string

	// CreateIndexSQL returns DDL for the saved_at eviction-order index.
	CreateIndexSQL() string
}
