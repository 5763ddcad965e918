//go:build integration

package database_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-record/pkg/database"
	"github.com/ekaya-inc/ekaya-record/pkg/testhelpers"
)

func TestRunMigrations_Idempotent(t *testing.T) {
	conn := testhelpers.GetTestConnection(t)

	// GetTestConnection already applied every migration.
	require.NoError(t, database.RunMigrations(conn, testhelpers.MigrationsPath(), zap.NewNop()))

	rs, err := conn.Handle().Query(context.Background(), conn.Dialect().ColumnsQuery(), conn.Schema(), "posts")
	require.NoError(t, err)
	assert.Equal(t, 4, rs.Len())
}
