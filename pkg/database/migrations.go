package database

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlserver"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-record/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-record/pkg/apperrors"
)

// RunMigrations executes pending migrations from <migrationsPath>/<dialect>.
// It is idempotent and safe to call multiple times - only pending migrations will be executed.
func RunMigrations(conn *Connection, migrationsPath string, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	opener, ok := conn.Handle().(datasource.SQLOpener)
	if !ok {
		return fmt.Errorf("%s driver does not support migrations", conn.Handle().Type())
	}

	db, err := opener.OpenSQLDB()
	if err != nil {
		return fmt.Errorf("failed to open migration connection: %w", err)
	}

	driver, driverName, err := migrationDriver(conn.Dialect().Name(), db, conn.Schema())
	if err != nil {
		db.Close()
		return err
	}

	dir := filepath.Join(migrationsPath, conn.Dialect().Name())
	m, err := migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", dir), driverName, driver)
	if err != nil {
		driver.Close()
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil {
			logger.Warn("Failed to close migration source", zap.Error(srcErr))
		}
		if dbErr != nil {
			logger.Warn("Failed to close migration database", zap.Error(dbErr))
		}
	}()

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("No migrations to apply (database up-to-date)", zap.String("path", dir))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	newVersion, _, _ := m.Version()
	logger.Info("Applied migrations successfully",
		zap.String("path", dir),
		zap.Uint("version", newVersion),
	)
	return nil
}

func migrationDriver(dialect string, db *sql.DB, schema string) (migratedb.Driver, string, error) {
	switch dialect {
	case "postgres":
		driver, err := postgres.WithInstance(db, &postgres.Config{SchemaName: schema})
		if err != nil {
			return nil, "", fmt.Errorf("failed to create migration driver: %w", err)
		}
		return driver, "postgres", nil
	case "mssql":
		driver, err := sqlserver.WithInstance(db, &sqlserver.Config{SchemaName: schema})
		if err != nil {
			return nil, "", fmt.Errorf("failed to create migration driver: %w", err)
		}
		return driver, "sqlserver", nil
	default:
		return nil, "", fmt.Errorf("%w: %s", apperrors.ErrUnsupportedDialect, dialect)
	}
}
