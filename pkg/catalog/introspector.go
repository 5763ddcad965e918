package catalog

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-record/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-record/pkg/database"
	"github.com/ekaya-inc/ekaya-record/pkg/logging"
	"github.com/ekaya-inc/ekaya-record/pkg/retry"
)

// Introspector reports the columns of a table, ordered by ordinal position.
// A table that does not exist yields an empty slice, not an error.
type Introspector interface {
	Columns(ctx context.Context, schema, table string) ([]datasource.ColumnMetadata, error)
}

// SchemaIntrospector queries the information schema through a Connection.
type SchemaIntrospector struct {
	conn        *database.Connection
	retryConfig *retry.Config
	logger      *zap.Logger
}

// NewIntrospector creates an introspector that retries transient failures
// with retry.DefaultConfig.
func NewIntrospector(conn *database.Connection, logger *zap.Logger) *SchemaIntrospector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SchemaIntrospector{
		conn:        conn,
		retryConfig: retry.DefaultConfig(),
		logger:      logger.Named("catalog"),
	}
}

// WithRetryConfig replaces the retry policy.
func (s *SchemaIntrospector) WithRetryConfig(cfg *retry.Config) *SchemaIntrospector {
	s.retryConfig = cfg
	return s
}

// Columns runs the dialect's column query for schema.table.
func (s *SchemaIntrospector) Columns(ctx context.Context, schema, table string) ([]datasource.ColumnMetadata, error) {
	query := s.conn.Dialect().ColumnsQuery()

	var rs *datasource.ResultSet
	err := retry.DoIfRetryable(ctx, s.retryConfig, func() error {
		var queryErr error
		rs, queryErr = s.conn.Handle().Query(ctx, query, schema, table)
		return queryErr
	})
	if err != nil {
		s.logger.Error("Column introspection failed",
			zap.String("schema", schema),
			zap.String("table", table),
			zap.String("error", logging.SanitizeError(err)),
		)
		return nil, fmt.Errorf("query columns of %s.%s: %w", schema, table, err)
	}

	columns, err := datasource.ParseColumns(rs)
	if err != nil {
		return nil, fmt.Errorf("parse columns of %s.%s: %w", schema, table, err)
	}

	s.logger.Debug("Introspected table",
		zap.String("schema", schema),
		zap.String("table", table),
		zap.Int("columns", len(columns)),
	)
	return columns, nil
}

// Tables lists the base tables of schema, ordered by name.
func (s *SchemaIntrospector) Tables(ctx context.Context, schema string) ([]string, error) {
	query := s.conn.Dialect().TablesQuery()

	var rs *datasource.ResultSet
	err := retry.DoIfRetryable(ctx, s.retryConfig, func() error {
		var queryErr error
		rs, queryErr = s.conn.Handle().Query(ctx, query, schema)
		return queryErr
	})
	if err != nil {
		return nil, fmt.Errorf("query tables of %s: %w", schema, err)
	}

	tables := make([]string, 0, rs.Len())
	for i, row := range rs.Rows {
		if len(row) == 0 {
			return nil, fmt.Errorf("table row %d: no values", i)
		}
		name, ok := datasource.AsString(row[0])
		if !ok {
			return nil, fmt.Errorf("table row %d: invalid table name %v", i, row[0])
		}
		tables = append(tables, name)
	}
	return tables, nil
}

// Ensure SchemaIntrospector implements Introspector at compile time.
var _ Introspector = (*SchemaIntrospector)(nil)
