package postgres

import (
	"fmt"
	"net/url"

	"github.com/ekaya-inc/ekaya-record/pkg/config"
)

// DefaultPort returns the default PostgreSQL port.
func DefaultPort() int {
	return 5432
}

// DefaultSSLMode returns the SSL mode used when none is configured.
func DefaultSSLMode() string {
	return "disable"
}

// buildConnectionString builds a PostgreSQL URL with proper escaping.
// All user-provided fields are URL-escaped so passwords containing @, /, # or ?
// do not break URL parsing. When running in Docker, localhost is resolved to
// host.docker.internal.
func buildConnectionString(cfg *config.DatabaseConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = DefaultSSLMode()
	}

	port := cfg.Port
	if port == 0 {
		port = DefaultPort()
	}

	return fmt.Sprintf(
		"postgresql://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(cfg.User),
		url.QueryEscape(cfg.Password),
		config.ResolveHost(cfg.Host),
		port,
		url.QueryEscape(cfg.Database),
		url.QueryEscape(sslMode),
	)
}
