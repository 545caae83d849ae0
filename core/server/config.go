package server

import "time"

// Config holds configuration for the HTTP server.
type Config struct {
	// Port is the port where the server will listen.
	Port string `mapstructure:"port" default:"8080"`
	// ApiKey is the secret key required to access the API. Empty disables the check.
	ApiKey string `mapstructure:"api_key" default:""`
	// SnapshotTTLSeconds is how long a loaded snapshot serves plan requests.
	SnapshotTTLSeconds int `mapstructure:"snapshot_ttl_seconds" default:"60"`
}

// Addr returns the listen address.
func (c Config) Addr() string {
	if c.Port == "" {
		return ":8080"
	}
	return ":" + c.Port
}

// SnapshotTTL returns the snapshot cache lifetime.
func (c Config) SnapshotTTL() time.Duration {
	if c.SnapshotTTLSeconds < 0 {
		return 0
	}
	return time.Duration(c.SnapshotTTLSeconds) * time.Second
}
