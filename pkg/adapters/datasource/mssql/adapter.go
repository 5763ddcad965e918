package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	mssqldb "github.com/microsoft/go-mssqldb"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-record/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-record/pkg/config"
	"github.com/ekaya-inc/ekaya-record/pkg/logging"
)

// sqlQuerier is satisfied by both *sql.DB and *sql.Tx.
type sqlQuerier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Driver provides SQL Server connectivity over database/sql.
type Driver struct {
	db      *sql.DB
	connStr string
}

// Open creates a *sql.DB for cfg and pings it once. Failures are returned, not retried.
func Open(ctx context.Context, cfg *config.DatabaseConfig, logger *zap.Logger) (*Driver, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	connStr := buildConnectionString(cfg)

	db, err := sql.Open("sqlserver", connStr)
	if err != nil {
		logger.Error("failed to open SQL Server connection",
			zap.String("conn", logging.SanitizeConnectionString(connStr)),
			zap.String("error", logging.SanitizeError(err)),
		)
		return nil, fmt.Errorf("open SQL auth connection: %w", err)
	}

	if cfg.MaxConnections > 0 {
		db.SetMaxOpenConns(int(cfg.MaxConnections))
	}
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping failed: %w", err)
	}

	return &Driver{db: db, connStr: connStr}, nil
}

// NewDriver wraps an existing *sql.DB opened with the sqlserver driver.
func NewDriver(db *sql.DB) *Driver {
	return &Driver{db: db}
}

// DB returns the underlying *sql.DB.
func (d *Driver) DB() *sql.DB {
	return d.db
}

// OpenSQLDB opens a separate *sql.DB with the same settings, for callers that
// close the handle they are given (such as the migration runner).
func (d *Driver) OpenSQLDB() (*sql.DB, error) {
	if d.connStr == "" {
		return nil, fmt.Errorf("driver was not opened from configuration")
	}
	db, err := sql.Open("sqlserver", d.connStr)
	if err != nil {
		return nil, fmt.Errorf("open SQL auth connection: %w", err)
	}
	return db, nil
}

func (d *Driver) Query(ctx context.Context, query string, args ...any) (*datasource.ResultSet, error) {
	return queryRows(ctx, d.db, query, args...)
}

func (d *Driver) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	return execStatement(ctx, d.db, query, args...)
}

// Begin starts a transaction.
func (d *Driver) Begin(ctx context.Context) (datasource.Tx, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &txn{tx: tx}, nil
}

// Ping verifies the server is reachable.
func (d *Driver) Ping(ctx context.Context) error {
	if err := d.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	return nil
}

// Close closes the database handle.
func (d *Driver) Close() error {
	return d.db.Close()
}

// Type returns the adapter type.
func (d *Driver) Type() string {
	return "mssql"
}

type txn struct {
	tx *sql.Tx
}

func (t *txn) Query(ctx context.Context, query string, args ...any) (*datasource.ResultSet, error) {
	return queryRows(ctx, t.tx, query, args...)
}

func (t *txn) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	return execStatement(ctx, t.tx, query, args...)
}

func (t *txn) Commit(_ context.Context) error {
	return t.tx.Commit()
}

func (t *txn) Rollback(_ context.Context) error {
	return t.tx.Rollback()
}

func queryRows(ctx context.Context, q sqlQuerier, query string, args ...any) (*datasource.ResultSet, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}
	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to get column types: %w", err)
	}
	typeNames := make([]string, len(columnTypes))
	for i, ct := range columnTypes {
		typeNames[i] = ct.DatabaseTypeName()
	}

	result := &datasource.ResultSet{
		Columns: columns,
		Rows:    make([][]any, 0),
	}

	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		if err := normalizeRow(typeNames, values); err != nil {
			return nil, err
		}
		result.Rows = append(result.Rows, values)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return result, nil
}

// normalizeRow rewrites UNIQUEIDENTIFIER values, which the driver returns as
// raw bytes in SQL Server's mixed-endian order, into their canonical text.
func normalizeRow(typeNames []string, values []any) error {
	for i, v := range values {
		if i >= len(typeNames) || typeNames[i] != "UNIQUEIDENTIFIER" {
			continue
		}
		raw, ok := v.([]byte)
		if !ok {
			continue
		}
		var id mssqldb.UniqueIdentifier
		if err := id.Scan(raw); err != nil {
			return fmt.Errorf("failed to decode uniqueidentifier: %w", err)
		}
		values[i] = id.String()
	}
	return nil
}

func execStatement(ctx context.Context, q sqlQuerier, query string, args ...any) (int64, error) {
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to execute statement: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return affected, nil
}

// Ensure Driver implements datasource.Driver at compile time.
var _ datasource.Driver = (*Driver)(nil)
