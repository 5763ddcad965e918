package database

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-record/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-record/pkg/config"
	"github.com/ekaya-inc/ekaya-record/pkg/logging"
)

// FetchMode describes how query rows are materialised.
type FetchMode int

const (
	// FetchModeClass hydrates every row into a record of the calling entity.
	FetchModeClass FetchMode = iota
)

func (m FetchMode) String() string {
	switch m {
	case FetchModeClass:
		return "class"
	default:
		return fmt.Sprintf("FetchMode(%d)", int(m))
	}
}

// Connection is the live database handle shared by all models.
// It never reconnects; a broken handle surfaces as errors from the driver.
type Connection struct {
	id       uuid.UUID
	driver   datasource.Driver
	dialect  datasource.Dialect
	schema   string
	database string
	logger   *zap.Logger
}

// Open connects to the database described by cfg using the registered adapter
// for cfg.Type. Connection failures are returned immediately without retry.
func Open(ctx context.Context, cfg *config.DatabaseConfig, logger *zap.Logger) (*Connection, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	reg, err := datasource.Lookup(cfg.Type)
	if err != nil {
		return nil, err
	}

	driver, err := reg.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to connect to database",
			zap.String("type", reg.Info.Type),
			zap.String("host", cfg.Host),
			zap.String("database", cfg.Database),
			zap.String("error", logging.SanitizeError(err)),
		)
		return nil, fmt.Errorf("failed to connect to %s database: %w", reg.Info.DisplayName, err)
	}

	conn := NewConnection(driver, reg.Dialect, cfg.Schema, cfg.Database, logger)
	conn.logger.Info("Database connection established",
		zap.String("type", reg.Info.Type),
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database),
		zap.String("schema", conn.schema),
	)
	return conn, nil
}

// NewConnection wraps an already opened driver. An empty schema falls back to
// the dialect default.
func NewConnection(driver datasource.Driver, dialect datasource.Dialect, schema, database string, logger *zap.Logger) *Connection {
	if logger == nil {
		logger = zap.NewNop()
	}
	if strings.TrimSpace(schema) == "" {
		schema = dialect.DefaultSchema()
	}

	id := uuid.New()
	return &Connection{
		id:       id,
		driver:   driver,
		dialect:  dialect,
		schema:   schema,
		database: database,
		logger:   logger.Named("database").With(zap.String("connection_id", id.String())),
	}
}

var (
	instance     *Connection
	instanceErr  error
	instanceOnce sync.Once
)

// Instance returns the process-wide connection, opening it on first use.
// Later calls return the same connection (or the same error) and ignore their
// arguments.
func Instance(ctx context.Context, cfg *config.DatabaseConfig, logger *zap.Logger) (*Connection, error) {
	instanceOnce.Do(func() {
		instance, instanceErr = Open(ctx, cfg, logger)
	})
	return instance, instanceErr
}

// ID identifies this connection in logs.
func (c *Connection) ID() uuid.UUID {
	return c.id
}

// Handle returns the underlying driver.
func (c *Connection) Handle() datasource.Driver {
	return c.driver
}

// Dialect returns the SQL dialect of the connected database.
func (c *Connection) Dialect() datasource.Dialect {
	return c.dialect
}

// FetchMode is always FetchModeClass.
func (c *Connection) FetchMode() FetchMode {
	return FetchModeClass
}

// Schema returns the schema models are introspected and queried in.
func (c *Connection) Schema() string {
	return c.schema
}

// Database returns the configured database name.
func (c *Connection) Database() string {
	return c.database
}

// Logger returns the connection-scoped logger.
func (c *Connection) Logger() *zap.Logger {
	return c.logger
}

// Ping verifies the database is reachable.
func (c *Connection) Ping(ctx context.Context) error {
	if err := c.driver.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

// Close releases the driver.
func (c *Connection) Close() error {
	if err := c.driver.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	c.logger.Debug("Database connection closed")
	return nil
}
