package localcache

import (
	"os"
	"strconv"
	"time"
)

// ConfigFromEnv reads the local cache's connection settings straight from
// the process environment, the same pattern config.LoadSecrets uses: these
// are neither part of Config's key table (spec §6 names no cache-database
// keys) nor secrets in the spec's sense, just ambient deployment settings
// for an optional, non-authoritative store. ok is false when
// ARGUS_CACHE_DB_HOST is unset, the signal callers use to skip opening a
// cache entirely and run without one.
func ConfigFromEnv() (Config, bool) {
	host := os.Getenv("ARGUS_CACHE_DB_HOST")
	if host == "" {
		return Config{}, false
	}

	port := 5432
	if raw := os.Getenv("ARGUS_CACHE_DB_PORT"); raw != "" {
		if p, err := strconv.Atoi(raw); err == nil {
			port = p
		}
	}

	var lifetime, idle time.Duration
	if raw := os.Getenv("ARGUS_CACHE_DB_CONN_MAX_LIFETIME"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			lifetime = d
		}
	}
	if raw := os.Getenv("ARGUS_CACHE_DB_CONN_MAX_IDLE_TIME"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			idle = d
		}
	}

	return Config{
		Host:            host,
		Port:            port,
		Database:        os.Getenv("ARGUS_CACHE_DB_NAME"),
		Username:        os.Getenv("ARGUS_CACHE_DB_USER"),
		Password:        os.Getenv("ARGUS_CACHE_DB_PASSWORD"),
		SSLMode:         os.Getenv("ARGUS_CACHE_DB_SSLMODE"),
		ConnMaxLifetime: lifetime,
		ConnMaxIdleTime: idle,
	}, true
}
