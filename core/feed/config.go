package feed

import "time"

// Config selects the feed source.
type Config struct {
	// URL is the feed location.
	URL string `mapstructure:"url" default:"https://lolrmm.io/api/rmm_tools.json"`
	// File reads a saved feed snapshot instead of downloading. Takes precedence over URL.
	File string `mapstructure:"file" default:""`
	// TimeoutSeconds bounds the download.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"60"`
}

// NewFetcher returns the fetcher for the configured source.
func NewFetcher(cfg Config) Fetcher {
	if cfg.File != "" {
		return &FileFetcher{Path: cfg.File}
	}
	return NewHTTPFetcher(cfg.URL, time.Duration(cfg.TimeoutSeconds)*time.Second)
}
