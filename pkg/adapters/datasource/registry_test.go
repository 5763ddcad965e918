package datasource

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-record/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-record/pkg/config"
)

func TestRegistry_LookupIsCaseInsensitive(t *testing.T) {
	Register(AdapterRegistration{
		Info: AdapterInfo{Type: "testdb", DisplayName: "Test DB"},
		Open: func(ctx context.Context, cfg *config.DatabaseConfig, logger *zap.Logger) (Driver, error) {
			return nil, errors.New("not used")
		},
	})

	reg, err := Lookup("TestDB")
	require.NoError(t, err)
	assert.Equal(t, "Test DB", reg.Info.DisplayName)
	assert.True(t, IsRegistered("testdb"))
}

func TestRegistry_LookupUnknown(t *testing.T) {
	_, err := Lookup("oracle")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnsupportedDialect))
	assert.False(t, IsRegistered("oracle"))
}

func TestRegistry_RegisteredAdaptersSorted(t *testing.T) {
	Register(AdapterRegistration{Info: AdapterInfo{Type: "zzz", DisplayName: "Last"}})
	Register(AdapterRegistration{Info: AdapterInfo{Type: "aaa", DisplayName: "First"}})

	infos := RegisteredAdapters()
	require.GreaterOrEqual(t, len(infos), 2)
	for i := 1; i < len(infos); i++ {
		if infos[i-1].Type > infos[i].Type {
			t.Errorf("adapters not sorted: %q before %q", infos[i-1].Type, infos[i].Type)
		}
	}
}
