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
)

// countingIntrospector serves fixed columns and counts lookups.
type countingIntrospector struct {
	columns map[string][]datasource.ColumnMetadata
	err     error
	calls   int
}

func (c *countingIntrospector) Columns(_ context.Context, schema, table string) ([]datasource.ColumnMetadata, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.columns[schema+"."+table], nil
}

func usersColumns() []datasource.ColumnMetadata {
	return []datasource.ColumnMetadata{
		{ColumnName: "id", DataType: "bigint", OrdinalPosition: 1},
		{ColumnName: "name", DataType: "text", IsNullable: true, OrdinalPosition: 2},
	}
}

func TestCache_ServesRepeatLookupsFromMemory(t *testing.T) {
	next := &countingIntrospector{columns: map[string][]datasource.ColumnMetadata{"public.users": usersColumns()}}
	cache := NewCache(next, nil, time.Minute, zaptest.NewLogger(t))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		columns, err := cache.Columns(ctx, "public", "users")
		require.NoError(t, err)
		assert.Equal(t, usersColumns(), columns)
	}
	assert.Equal(t, 1, next.calls)
	assert.Equal(t, 1, cache.Len())
}

func TestCache_ReturnsCopies(t *testing.T) {
	next := &countingIntrospector{columns: map[string][]datasource.ColumnMetadata{"public.users": usersColumns()}}
	cache := NewCache(next, nil, time.Minute, zaptest.NewLogger(t))
	ctx := context.Background()

	columns, err := cache.Columns(ctx, "public", "users")
	require.NoError(t, err)
	columns[0].ColumnName = "mutated"

	again, err := cache.Columns(ctx, "public", "users")
	require.NoError(t, err)
	assert.Equal(t, "id", again[0].ColumnName)
}

func TestCache_Expiry(t *testing.T) {
	next := &countingIntrospector{columns: map[string][]datasource.ColumnMetadata{"public.users": usersColumns()}}
	cache := NewCache(next, nil, time.Minute, zaptest.NewLogger(t))
	ctx := context.Background()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	_, err := cache.Columns(ctx, "public", "users")
	require.NoError(t, err)

	now = now.Add(30 * time.Second)
	_, err = cache.Columns(ctx, "public", "users")
	require.NoError(t, err)
	assert.Equal(t, 1, next.calls)

	now = now.Add(2 * time.Minute)
	_, err = cache.Columns(ctx, "public", "users")
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls)
}

func TestCache_DoesNotCacheEmptyResults(t *testing.T) {
	next := &countingIntrospector{columns: map[string][]datasource.ColumnMetadata{}}
	cache := NewCache(next, nil, time.Minute, zaptest.NewLogger(t))
	ctx := context.Background()

	columns, err := cache.Columns(ctx, "public", "users")
	require.NoError(t, err)
	assert.Empty(t, columns)

	next.columns["public.users"] = usersColumns()
	columns, err = cache.Columns(ctx, "public", "users")
	require.NoError(t, err)
	assert.Len(t, columns, 2)
	assert.Equal(t, 2, next.calls)
}

func TestCache_DoesNotCacheErrors(t *testing.T) {
	boom := errors.New("boom")
	next := &countingIntrospector{err: boom}
	cache := NewCache(next, nil, time.Minute, zaptest.NewLogger(t))
	ctx := context.Background()

	_, err := cache.Columns(ctx, "public", "users")
	assert.True(t, errors.Is(err, boom))
	assert.Equal(t, 0, cache.Len())
}

func TestCache_Invalidate(t *testing.T) {
	next := &countingIntrospector{columns: map[string][]datasource.ColumnMetadata{
		"public.users": usersColumns(),
		"public.posts": usersColumns(),
	}}
	cache := NewCache(next, nil, 0, zaptest.NewLogger(t))
	ctx := context.Background()

	_, _ = cache.Columns(ctx, "public", "users")
	_, _ = cache.Columns(ctx, "public", "posts")
	require.Equal(t, 2, cache.Len())

	require.NoError(t, cache.Invalidate(ctx, "public", "users"))
	assert.Equal(t, 1, cache.Len())

	_, _ = cache.Columns(ctx, "public", "users")
	assert.Equal(t, 3, next.calls)

	require.NoError(t, cache.InvalidateAll(ctx))
	assert.Equal(t, 0, cache.Len())
}

type introspectorFunc func(ctx context.Context, schema, table string) ([]datasource.ColumnMetadata, error)

func (f introspectorFunc) Columns(ctx context.Context, schema, table string) ([]datasource.ColumnMetadata, error) {
	return f(ctx, schema, table)
}

func TestCache_DottedNamesDoNotCollide(t *testing.T) {
	next := introspectorFunc(func(_ context.Context, schema, table string) ([]datasource.ColumnMetadata, error) {
		return []datasource.ColumnMetadata{{ColumnName: schema + "|" + table, DataType: "text", OrdinalPosition: 1}}, nil
	})
	cache := NewCache(next, nil, time.Minute, zaptest.NewLogger(t))
	ctx := context.Background()

	first, err := cache.Columns(ctx, "a.b", "c")
	require.NoError(t, err)
	second, err := cache.Columns(ctx, "a", "b.c")
	require.NoError(t, err)

	assert.Equal(t, "a.b|c", first[0].ColumnName)
	assert.Equal(t, "a|b.c", second[0].ColumnName)
	assert.Equal(t, 2, cache.Len())
}
