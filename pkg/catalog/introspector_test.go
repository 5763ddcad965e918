package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ekaya-inc/ekaya-record/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-record/pkg/database"
	"github.com/ekaya-inc/ekaya-record/pkg/retry"
	"github.com/ekaya-inc/ekaya-record/pkg/testhelpers"
)

// flakyDriver fails the first n queries with err.
type flakyDriver struct {
	*testhelpers.MemoryDriver
	n   int
	err error
}

func (f *flakyDriver) Query(ctx context.Context, query string, args ...any) (*datasource.ResultSet, error) {
	if f.n > 0 {
		f.n--
		return nil, f.err
	}
	return f.MemoryDriver.Query(ctx, query, args...)
}

func fastRetry() *retry.Config {
	return &retry.Config{
		MaxRetries:   3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func newTestConnection(driver datasource.Driver) *database.Connection {
	return database.NewConnection(driver, testhelpers.MemoryDialect{}, "public", "test", nil)
}

func TestSchemaIntrospector_Columns(t *testing.T) {
	driver := testhelpers.NewMemoryDriver()
	driver.CreateTable("public", "users", "id", "name", "email", "created_at")

	introspector := NewIntrospector(newTestConnection(driver), zaptest.NewLogger(t))
	columns, err := introspector.Columns(context.Background(), "public", "users")
	require.NoError(t, err)

	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.ColumnName
	}
	assert.Equal(t, []string{"id", "name", "email", "created_at"}, names)
	assert.Equal(t, 1, columns[0].OrdinalPosition)
	assert.False(t, columns[0].IsNullable)
	assert.True(t, columns[1].IsNullable)
}

func TestSchemaIntrospector_MissingTable(t *testing.T) {
	driver := testhelpers.NewMemoryDriver()
	introspector := NewIntrospector(newTestConnection(driver), zaptest.NewLogger(t))

	columns, err := introspector.Columns(context.Background(), "public", "ghosts")
	require.NoError(t, err)
	assert.Empty(t, columns)
}

func TestSchemaIntrospector_RetriesTransientFailures(t *testing.T) {
	mem := testhelpers.NewMemoryDriver()
	mem.CreateTable("public", "users", "id", "name")
	driver := &flakyDriver{MemoryDriver: mem, n: 2, err: errors.New("connection reset by peer")}

	introspector := NewIntrospector(newTestConnection(driver), zaptest.NewLogger(t)).WithRetryConfig(fastRetry())
	columns, err := introspector.Columns(context.Background(), "public", "users")
	require.NoError(t, err)
	assert.Len(t, columns, 2)
	assert.Equal(t, 0, driver.n)
}

func TestSchemaIntrospector_PermanentFailure(t *testing.T) {
	mem := testhelpers.NewMemoryDriver()
	permanent := errors.New("permission denied for table columns")
	driver := &flakyDriver{MemoryDriver: mem, n: 5, err: permanent}

	introspector := NewIntrospector(newTestConnection(driver), zaptest.NewLogger(t)).WithRetryConfig(fastRetry())
	_, err := introspector.Columns(context.Background(), "public", "users")
	require.Error(t, err)
	assert.True(t, errors.Is(err, permanent))
	assert.Equal(t, 4, driver.n, "permanent errors are not retried")
}

func TestSchemaIntrospector_Tables(t *testing.T) {
	driver := testhelpers.NewMemoryDriver()
	driver.CreateTable("public", "users", "id", "name")
	driver.CreateTable("public", "posts", "id", "title")
	driver.CreateTable("audit", "events", "id")

	introspector := NewIntrospector(newTestConnection(driver), zaptest.NewLogger(t))
	tables, err := introspector.Tables(context.Background(), "public")
	require.NoError(t, err)
	assert.Equal(t, []string{"posts", "users"}, tables)
}
