package record_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/ekaya-record/pkg/record"
)

func loadOnlyUser(t *testing.T, f *fixture) *record.Model {
	t.Helper()
	all, err := f.users().All(context.Background())
	require.NoError(t, err)
	m, ok := all.First()
	require.True(t, ok)
	return m
}

func TestModel_TypedReadersNormaliseDriverValues(t *testing.T) {
	f := newFixture(t)
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	f.driver.Seed("public", "users", map[string]any{
		"id":         int64(7),
		"name":       []byte("Ada"),
		"email":      nil,
		"created_at": created,
	})

	m := loadOnlyUser(t, f)

	id, err := m.Int64("id")
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)

	name, err := m.Text("name")
	require.NoError(t, err)
	assert.Equal(t, "Ada", name)

	email, err := m.OptionalText("email")
	require.NoError(t, err)
	assert.Nil(t, email)

	at, err := m.Time("created_at")
	require.NoError(t, err)
	assert.Equal(t, created, at)

	missing, err := m.Text("nickname")
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestModel_TypedReadersRejectWrongFamily(t *testing.T) {
	f := newFixture(t)
	f.driver.Seed("public", "users", map[string]any{"name": "Ada", "created_at": "yesterday"})

	m := loadOnlyUser(t, f)

	_, err := m.Int64("name")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name")

	_, err = m.Time("created_at")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "created_at")

	_, err = m.Bool("created_at")
	assert.Error(t, err)

	_, err = m.Float64("name")
	assert.Error(t, err)

	_, err = m.Bytes("id")
	assert.Error(t, err)
}
