package record_test

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/ekaya-inc/ekaya-record/pkg/catalog"
	"github.com/ekaya-inc/ekaya-record/pkg/database"
	"github.com/ekaya-inc/ekaya-record/pkg/record"
	"github.com/ekaya-inc/ekaya-record/pkg/testhelpers"
)

var usersDefinition = record.Definition{
	Table:    "users",
	Fillable: []string{"name", "email"},
}

type fixture struct {
	driver       *testhelpers.MemoryDriver
	conn         *database.Connection
	introspector catalog.Introspector
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithLogger(t, zaptest.NewLogger(t))
}

func newFixtureWithLogger(t *testing.T, logger *zap.Logger) *fixture {
	t.Helper()

	driver := testhelpers.NewMemoryDriver()
	driver.CreateTable("public", "users", "id", "name", "email", "created_at")

	conn := database.NewConnection(driver, testhelpers.MemoryDialect{}, "", "test", logger)
	return &fixture{
		driver:       driver,
		conn:         conn,
		introspector: catalog.NewIntrospector(conn, logger),
	}
}

func (f *fixture) users() *record.Repository[*record.Model] {
	return record.NewRepository(f.conn, f.introspector, usersDefinition, record.ModelMapper, nil)
}
