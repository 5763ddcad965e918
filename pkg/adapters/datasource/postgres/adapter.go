package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-record/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-record/pkg/config"
	"github.com/ekaya-inc/ekaya-record/pkg/logging"
)

const (
	defaultMaxConns        = 10
	defaultMaxConnLifetime = time.Hour
	defaultMaxConnIdleTime = 30 * time.Minute
)

// pgxQuerier is satisfied by both *pgxpool.Pool and pgx.Tx.
type pgxQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Driver provides PostgreSQL connectivity over a pgx pool.
type Driver struct {
	pool *pgxpool.Pool
}

// Open creates a pool for cfg and pings it once. Failures are returned, not retried.
func Open(ctx context.Context, cfg *config.DatabaseConfig, logger *zap.Logger) (*Driver, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	connStr := buildConnectionString(cfg)

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		logger.Error("failed to parse connection string",
			zap.String("conn", logging.SanitizeConnectionString(connStr)),
			zap.String("error", logging.SanitizeError(err)),
		)
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxConnections
	if poolConfig.MaxConns <= 0 {
		poolConfig.MaxConns = defaultMaxConns
	}
	poolConfig.MaxConnLifetime = defaultMaxConnLifetime
	poolConfig.MaxConnIdleTime = defaultMaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Driver{pool: pool}, nil
}

// NewDriver wraps an existing pool. The driver takes ownership of the pool.
func NewDriver(pool *pgxpool.Pool) *Driver {
	return &Driver{pool: pool}
}

// Pool returns the underlying *pgxpool.Pool.
func (d *Driver) Pool() *pgxpool.Pool {
	return d.pool
}

// OpenSQLDB returns a *sql.DB sharing the pool. Closing it leaves the pool open.
func (d *Driver) OpenSQLDB() (*sql.DB, error) {
	return stdlib.OpenDBFromPool(d.pool), nil
}

func (d *Driver) Query(ctx context.Context, query string, args ...any) (*datasource.ResultSet, error) {
	return queryRows(ctx, d.pool, query, args...)
}

func (d *Driver) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	return execStatement(ctx, d.pool, query, args...)
}

// Begin starts a transaction.
func (d *Driver) Begin(ctx context.Context) (datasource.Tx, error) {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &txn{tx: tx}, nil
}

// Ping verifies the pool can reach the server.
func (d *Driver) Ping(ctx context.Context) error {
	return d.pool.Ping(ctx)
}

// Close closes all connections in the pool.
func (d *Driver) Close() error {
	d.pool.Close()
	return nil
}

// Type returns the adapter type.
func (d *Driver) Type() string {
	return "postgres"
}

type txn struct {
	tx pgx.Tx
}

func (t *txn) Query(ctx context.Context, query string, args ...any) (*datasource.ResultSet, error) {
	return queryRows(ctx, t.tx, query, args...)
}

func (t *txn) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	return execStatement(ctx, t.tx, query, args...)
}

func (t *txn) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *txn) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}

func queryRows(ctx context.Context, q pgxQuerier, query string, args ...any) (*datasource.ResultSet, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	result := &datasource.ResultSet{
		Columns: make([]string, len(fieldDescs)),
		Rows:    make([][]any, 0),
	}
	for i, fd := range fieldDescs {
		result.Columns[i] = fd.Name
	}

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to read row values: %w", err)
		}
		result.Rows = append(result.Rows, normalizeRow(values))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return result, nil
}

func execStatement(ctx context.Context, q pgxQuerier, query string, args ...any) (int64, error) {
	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to execute statement: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Ensure Driver implements datasource.Driver at compile time.
var _ datasource.Driver = (*Driver)(nil)
