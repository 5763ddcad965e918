package postgres

import (
	"context"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-record/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-record/pkg/config"
)

func init() {
	datasource.Register(datasource.AdapterRegistration{
		Info: datasource.AdapterInfo{
			Type:        "postgres",
			DisplayName: "PostgreSQL",
		},
		Dialect: Dialect{},
		Open: func(ctx context.Context, cfg *config.DatabaseConfig, logger *zap.Logger) (datasource.Driver, error) {
			return Open(ctx, cfg, logger)
		},
	})
}
