// Package config provides configuration management for ioc-sync.
//
// It utilizes Viper for loading configuration from environment variables,
// an optional .env file, and an optional settings file (config.yaml).
// Environment variables win over the settings file, which wins over the
// defaults declared in each section's struct tags.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - API: inventory base URL and client credentials (API_CLIENT_ID, or CLIENT_ID)
//   - Feed: feed URL or saved snapshot file
//   - Policy: deployment stage, preferred actions, prevalence limits
//   - Rollout / Safety: host group scope, priority and excluded tools, excluded domains
//   - Apply: batch sizes and per-call timeout
//   - Server, Database, Storage, History, Metrics, Log
//
// List values accept comma-separated strings from the environment,
// e.g. ROLLOUT_HOST_GROUPS=pilot,finance.
//
// Unknown top-level sections in the settings file do not fail loading; they
// are reported in Config.Warnings.
//
// # Usage
//
//	cfg, err := config.Load(config.Options{Dir: "."})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Policy.DeploymentStage)
package config
