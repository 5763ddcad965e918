package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveHost(t *testing.T) {
	tests := []struct {
		host          string
		containerized bool
		expected      string
	}{
		{"localhost", false, "localhost"},
		{"localhost", true, HostGatewayAlias},
		{"LocalHost", true, HostGatewayAlias},
		{"127.0.0.1", true, HostGatewayAlias},
		{"127.0.0.53", true, HostGatewayAlias},
		{"::1", true, HostGatewayAlias},
		{"db.example.com", true, "db.example.com"},
		{"10.0.0.12", true, "10.0.0.12"},
		{"redis", true, "redis"},
	}

	for _, tt := range tests {
		if got := resolveHost(tt.host, tt.containerized); got != tt.expected {
			t.Errorf("resolveHost(%q, %v) = %q, want %q", tt.host, tt.containerized, got, tt.expected)
		}
	}
}

func TestDetectContainer(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, ".containerenv")

	if detectContainer([]string{marker}) {
		t.Fatal("detectContainer reported a container before the marker existed")
	}
	if err := os.WriteFile(marker, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	if !detectContainer([]string{filepath.Join(dir, ".dockerenv"), marker}) {
		t.Error("detectContainer missed an existing marker")
	}
}
