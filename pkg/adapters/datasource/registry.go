package datasource

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-record/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-record/pkg/config"
)

// AdapterInfo describes a registered adapter.
type AdapterInfo struct {
	Type        string `json:"type"`         // "postgres", "mssql"
	DisplayName string `json:"display_name"` // "PostgreSQL", "Microsoft SQL Server"
}

// AdapterRegistration contains info, dialect and driver factory for an adapter.
type AdapterRegistration struct {
	Info    AdapterInfo
	Dialect Dialect
	Open    func(ctx context.Context, cfg *config.DatabaseConfig, logger *zap.Logger) (Driver, error)
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]AdapterRegistration)
)

// Register is called by each adapter's init() function.
// Thread-safe for concurrent init() calls.
func Register(reg AdapterRegistration) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[reg.Info.Type] = reg
}

// Lookup returns the registration for an adapter type.
// The type is matched case-insensitively.
func Lookup(dsType string) (AdapterRegistration, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	if reg, ok := registry[strings.ToLower(dsType)]; ok {
		return reg, nil
	}
	return AdapterRegistration{}, fmt.Errorf("%w: %s (not compiled in)", apperrors.ErrUnsupportedDialect, dsType)
}

// RegisteredAdapters returns info for all registered adapters, sorted by type.
func RegisteredAdapters() []AdapterInfo {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]AdapterInfo, 0, len(registry))
	for _, reg := range registry {
		result = append(result, reg.Info)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Type < result[j].Type })
	return result
}

// IsRegistered checks if an adapter type is available.
func IsRegistered(dsType string) bool {
	_, err := Lookup(dsType)
	return err == nil
}
