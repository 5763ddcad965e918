package datasource

import (
	"context"
	"database/sql"
)

// Querier runs statements against a pool or an open transaction.
// Placeholders follow the owning Dialect ($1 for postgres, @p1 for mssql).
type Querier interface {
	// Query runs a statement that returns rows and buffers them into a ResultSet.
	Query(ctx context.Context, query string, args ...any) (*ResultSet, error)

	// Exec runs a statement that returns no rows and reports rows affected.
	Exec(ctx context.Context, query string, args ...any) (int64, error)
}

// Tx is an open transaction. Exactly one of Commit or Rollback must be called.
type Tx interface {
	Querier
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Driver is the live handle behind a database connection.
// Each implementation owns its pool and must be closed when done.
type Driver interface {
	Querier

	// Begin starts a transaction on a connection taken from the pool.
	Begin(ctx context.Context) (Tx, error)

	// Ping verifies the database is reachable.
	Ping(ctx context.Context) error

	// Close releases the pool.
	Close() error

	// Type returns the adapter type for logging ("postgres", "mssql").
	Type() string
}

// Dialect captures the SQL differences between supported databases.
type Dialect interface {
	// Name returns the adapter type this dialect belongs to.
	Name() string

	// DefaultPort is used when the configuration leaves the port empty.
	DefaultPort() int

	// DefaultSchema is used when the configuration leaves the schema empty.
	DefaultSchema() string

	// Placeholder returns the positional parameter marker for the n-th (1-based) argument.
	Placeholder(n int) string

	// QuoteIdentifier safely quotes a table or column name.
	QuoteIdentifier(name string) string

	// QualifiedTable returns the quoted schema-qualified table reference.
	// An empty schema yields just the quoted table.
	QualifiedTable(schema, table string) string

	// InsertReturning builds an INSERT of columns into table that returns the
	// primary key the database assigned. With no columns the row is inserted
	// with DEFAULT VALUES.
	InsertReturning(schema, table string, columns []string, primaryKey string) string

	// ColumnsQuery returns the information schema query listing a table's
	// columns, taking (schema, table) arguments, ordered by ordinal position.
	// Result columns: column_name, data_type, is_nullable (1/0),
	// ordinal_position, column_default.
	ColumnsQuery() string

	// TablesQuery returns the information schema query listing base tables of
	// a schema, taking a single (schema) argument, ordered by name.
	TablesQuery() string
}

// SQLOpener is implemented by drivers that can hand out a database/sql
// handle for tooling built on database/sql. The caller owns and closes it.
type SQLOpener interface {
	OpenSQLDB() (*sql.DB, error)
}
