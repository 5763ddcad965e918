package testhelpers

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-record/pkg/config"
	"github.com/ekaya-inc/ekaya-record/pkg/database"

	_ "github.com/ekaya-inc/ekaya-record/pkg/adapters/datasource/postgres" // Register postgres adapter
)

// PostgresTestImage is the PostgreSQL image used for integration tests.
const PostgresTestImage = "postgres:16-alpine"

// TestDB holds a shared test database container and its connection settings.
type TestDB struct {
	Container testcontainers.Container
	Config    config.DatabaseConfig
}

var (
	sharedTestDB     *TestDB
	sharedTestDBOnce sync.Once
	sharedTestDBErr  error
)

// GetTestDB returns a shared PostgreSQL container for integration tests.
// The container is created once and reused across all tests in the run.
func GetTestDB(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	sharedTestDBOnce.Do(func() {
		sharedTestDB, sharedTestDBErr = setupTestDB()
	})

	if sharedTestDBErr != nil {
		t.Fatalf("Failed to setup test database: %v", sharedTestDBErr)
	}

	return sharedTestDB
}

func setupTestDB() (*TestDB, error) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        PostgresTestImage,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "ekaya_record_test",
			"POSTGRES_USER":     "ekaya",
			"POSTGRES_PASSWORD": "test_password",
		},
		// The server logs readiness twice: once for the init phase, once for real.
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start test container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}

	portNum, err := strconv.Atoi(port.Port())
	if err != nil {
		return nil, fmt.Errorf("invalid container port %q: %w", port.Port(), err)
	}

	return &TestDB{
		Container: container,
		Config: config.DatabaseConfig{
			Type:           "postgres",
			Host:           host,
			Port:           portNum,
			User:           "ekaya",
			Password:       "test_password",
			Database:       "ekaya_record_test",
			Schema:         "public",
			SSLMode:        "disable",
			MaxConnections: 5,
		},
	}, nil
}

var (
	sharedConn     *database.Connection
	sharedConnOnce sync.Once
	sharedConnErr  error
)

// GetTestConnection returns a shared Connection to the test container with
// the example migrations applied.
func GetTestConnection(t *testing.T) *database.Connection {
	t.Helper()

	testDB := GetTestDB(t)

	sharedConnOnce.Do(func() {
		sharedConn, sharedConnErr = setupConnection(testDB)
	})

	if sharedConnErr != nil {
		t.Fatalf("Failed to setup test connection: %v", sharedConnErr)
	}

	return sharedConn
}

func setupConnection(testDB *TestDB) (*database.Connection, error) {
	ctx := context.Background()

	cfg := testDB.Config
	conn, err := database.Open(ctx, &cfg, zap.NewNop())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to test database: %w", err)
	}

	if err := database.RunMigrations(conn, MigrationsPath(), zap.NewNop()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return conn, nil
}

// MigrationsPath returns the absolute path of the repository migrations directory.
func MigrationsPath() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "migrations")
}
