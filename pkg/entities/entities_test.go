package entities

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ekaya-inc/ekaya-record/pkg/catalog"
	"github.com/ekaya-inc/ekaya-record/pkg/database"
	"github.com/ekaya-inc/ekaya-record/pkg/record"
	"github.com/ekaya-inc/ekaya-record/pkg/testhelpers"
)

func newTestRepositories(t *testing.T) (*testhelpers.MemoryDriver, *record.Repository[User], *record.Repository[Post]) {
	t.Helper()
	logger := zaptest.NewLogger(t)

	driver := testhelpers.NewMemoryDriver()
	driver.CreateTable("public", UserTable, "id", "name", "email", "created_at")
	driver.CreateTable("public", PostTable, "id", "user_id", "title", "body")

	conn := database.NewConnection(driver, testhelpers.MemoryDialect{}, "", "test", logger)
	introspector := catalog.NewIntrospector(conn, logger)
	return driver, NewUserRepository(conn, introspector, logger), NewPostRepository(conn, introspector, logger)
}

func TestDefinitionsMatchConvention(t *testing.T) {
	assert.Equal(t, record.TableNameFor("User"), UserDefinition.Table)
	assert.Equal(t, record.TableNameFor("Post"), PostDefinition.Table)
	require.NoError(t, UserDefinition.Validate())
	require.NoError(t, PostDefinition.Validate())
}

func TestUserRepository_CreateAndFind(t *testing.T) {
	_, users, _ := newTestRepositories(t)
	ctx := context.Background()

	created, err := users.Create(ctx, map[string]any{"name": "Ada", "email": "ada@example.com"})
	require.NoError(t, err)
	assert.Equal(t, User{ID: 1, Name: "Ada", Email: "ada@example.com"}, created)

	found, err := users.Find(ctx, created.ID)
	require.NoError(t, err)
	got, ok := found.First()
	require.True(t, ok)
	assert.Equal(t, created, got)
}

func TestPostRepository_OptionalBody(t *testing.T) {
	driver, _, posts := newTestRepositories(t)
	ctx := context.Background()
	driver.Seed("public", PostTable, map[string]any{"user_id": int64(1), "title": "Draft"})

	body := "Hello"
	created, err := posts.Create(ctx, map[string]any{"user_id": int64(1), "title": "Published", "body": body})
	require.NoError(t, err)
	require.NotNil(t, created.Body)
	assert.Equal(t, body, *created.Body)

	all, err := posts.All(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, all.Len())

	draft, err := all.Get(0)
	require.NoError(t, err)
	assert.Equal(t, "Draft", draft.Title)
	assert.Nil(t, draft.Body)
}

func TestMapUser_RejectsBadTypes(t *testing.T) {
	driver, users, _ := newTestRepositories(t)
	driver.Seed("public", UserTable, map[string]any{"name": "Ada", "created_at": "yesterday"})

	_, err := users.All(context.Background())
	assert.Error(t, err)
}
