package mssql

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeRow_UniqueIdentifier(t *testing.T) {
	raw := []byte{0xFF, 0x19, 0x96, 0x6F, 0x86, 0x8B, 0x11, 0xD0, 0xB4, 0x2D, 0x00, 0xC0, 0x4F, 0xC9, 0x64, 0xFF}
	row := []any{int64(1), raw, []byte("12.50"), nil}

	require.NoError(t, normalizeRow([]string{"INT", "UNIQUEIDENTIFIER", "DECIMAL", "UNIQUEIDENTIFIER"}, row))

	id, ok := row[1].(string)
	require.True(t, ok, "uniqueidentifier should be text, got %T", row[1])
	assert.Equal(t, "6F9619FF-8B86-D011-B42D-00C04FC964FF", strings.ToUpper(id))
	assert.Equal(t, int64(1), row[0])
	assert.Equal(t, []byte("12.50"), row[2])
	assert.Nil(t, row[3])
}

func TestNormalizeRow_BadUniqueIdentifier(t *testing.T) {
	err := normalizeRow([]string{"UNIQUEIDENTIFIER"}, []any{[]byte{1, 2}})
	assert.Error(t, err)
}
