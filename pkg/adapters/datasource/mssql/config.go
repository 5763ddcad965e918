package mssql

import (
	"fmt"
	"net/url"

	"github.com/ekaya-inc/ekaya-record/pkg/config"
)

// DefaultPort returns the default SQL Server port.
func DefaultPort() int {
	return 1433
}

// DefaultConnectionTimeout returns the default connection timeout in seconds.
func DefaultConnectionTimeout() int {
	return 30
}

// buildConnectionString creates a sqlserver:// URL using SQL Server authentication.
// SSLMode "disable" turns encryption off; anything else requests it.
func buildConnectionString(cfg *config.DatabaseConfig) string {
	query := url.Values{}
	query.Add("database", cfg.Database)

	if cfg.SSLMode == "disable" {
		query.Add("encrypt", "false")
	} else {
		query.Add("encrypt", "true")
		query.Add("TrustServerCertificate", "true")
	}
	query.Add("connection timeout", fmt.Sprintf("%d", DefaultConnectionTimeout()))

	port := cfg.Port
	if port == 0 {
		port = DefaultPort()
	}

	return fmt.Sprintf("sqlserver://%s:%s@%s:%d?%s",
		url.QueryEscape(cfg.User),
		url.QueryEscape(cfg.Password),
		config.ResolveHost(cfg.Host),
		port,
		query.Encode(),
	)
}
