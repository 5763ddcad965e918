package record_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/ekaya-record/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-record/pkg/record"
)

func TestCollection_AddAssignsSequentialKeys(t *testing.T) {
	c := record.NewCollection[string]()

	assert.Equal(t, 0, c.Add("a"))
	assert.Equal(t, 1, c.Add("b"))
	assert.Equal(t, 2, c.Add("c"))

	assert.Equal(t, []record.Entry[string]{
		{Key: 0, Item: "a"},
		{Key: 1, Item: "b"},
		{Key: 2, Item: "c"},
	}, c.All())
	assert.Equal(t, []int{0, 1, 2}, c.Keys())
	assert.Equal(t, []string{"a", "b", "c"}, c.Items())
}

func TestCollection_ExplicitKeysDoNotAdvanceAutoKey(t *testing.T) {
	c := record.NewCollection[string]()

	c.Put(5, "x")
	key := c.Add("y")
	assert.Equal(t, 0, key)

	assert.Equal(t, []record.Entry[string]{
		{Key: 5, Item: "x"},
		{Key: 0, Item: "y"},
	}, c.All())
}

func TestCollection_AutoKeyCanOverwriteExplicitKey(t *testing.T) {
	c := record.NewCollection[string]()

	c.Put(1, "explicit")
	c.Add("first")
	c.Add("second")

	got, err := c.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "second", got)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, []int{1, 0}, c.Keys(), "overwrites keep the original position")
}

func TestCollection_GetMissingKey(t *testing.T) {
	c := record.NewCollection[int]()
	c.Add(42)

	got, err := c.Get(7)
	require.Error(t, err)
	assert.Equal(t, 0, got)
	assert.True(t, errors.Is(err, record.ErrKeyNotFound))
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestCollection_ZeroValue(t *testing.T) {
	var c record.Collection[string]

	_, ok := c.First()
	assert.False(t, ok)
	assert.Empty(t, c.All())

	c.Add("a")
	first, ok := c.First()
	assert.True(t, ok)
	assert.Equal(t, "a", first)
}
