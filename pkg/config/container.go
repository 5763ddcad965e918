package config

import (
	"net"
	"os"
	"strings"
	"sync"
)

// HostGatewayAlias is the name Docker and Podman give the host machine.
const HostGatewayAlias = "host.docker.internal"

// containerMarkers are files container runtimes create in the root filesystem.
var containerMarkers = []string{"/.dockerenv", "/run/.containerenv"}

var (
	inContainerOnce sync.Once
	inContainer     bool
)

// InContainer reports whether the process runs under Docker or Podman.
// Detection runs once.
func InContainer() bool {
	inContainerOnce.Do(func() {
		inContainer = detectContainer(containerMarkers)
	})
	return inContainer
}

func detectContainer(markers []string) bool {
	for _, path := range markers {
		if _, err := os.Stat(path); err == nil {
			return true
		}
	}
	return false
}

// ResolveHost rewrites loopback hosts to HostGatewayAlias when running in a
// container, so a database or Redis published on the host stays reachable
// with the same configuration. Other hosts are returned unchanged.
func ResolveHost(host string) string {
	return resolveHost(host, InContainer())
}

func resolveHost(host string, containerized bool) string {
	if containerized && isLoopback(host) {
		return HostGatewayAlias
	}
	return host
}

func isLoopback(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
