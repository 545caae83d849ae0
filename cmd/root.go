package cmd

import (
	"errors"
	"fmt"
	"os"

	"ioc-sync/core/config"
	"ioc-sync/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configFile   string
	envFile      string
	logLevel     string
	clientID     string
	clientSecret string
	baseURL      string
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "ioc-sync",
	Short: "Sync LOLRMM domains to the indicator inventory",
	Long: `ioc-sync keeps the domain indicators of a remote inventory in line with
the LOLRMM remote monitoring tool feed. Runs move through three stages:
assess (read-only prevalence review), report (passive action) and deploy.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// Console format with ISO8601 timestamps reads best on a terminal
		cfg := &logger.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			fmt.Println(err)
		}
		os.Exit(1)
	}
}

func init() {
	pf := RootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "Path to YAML config (default: ./config.yaml when present)")
	pf.StringVar(&envFile, "env-file", "", "Path to .env file (default: ./.env)")
	pf.StringVar(&logLevel, "log-level", "", "Logging level: debug, info, warn, error (overrides log.level)")
	pf.StringVar(&clientID, "client-id", "", "Inventory API client ID (overrides api.client_id)")
	pf.StringVar(&clientSecret, "client-secret", "", "Inventory API client secret (overrides api.client_secret)")
	pf.StringVar(&baseURL, "base-url", "", "Inventory API base URL (overrides api.base_url)")
}

// errMissingCredentials is returned by commands that need the inventory API.
var errMissingCredentials = errors.New("missing inventory API credentials: set API_CLIENT_ID and API_CLIENT_SECRET (or CLIENT_ID/CLIENT_SECRET) in the environment or .env, or pass --client-id/--client-secret")

// loadRuntime loads the configuration, applies the global flags and builds the logger.
func loadRuntime() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(config.Options{Dir: ".", EnvFile: envFile, File: configFile})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if clientID != "" {
		cfg.API.ClientID = clientID
	}
	if clientSecret != "" {
		cfg.API.ClientSecret = clientSecret
	}
	if baseURL != "" {
		cfg.API.BaseURL = baseURL
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	if configFile == "" {
		if _, err := os.Stat(config.DefaultFile); err != nil {
			l.Warn("Config file not found, using built-in defaults", zap.String("path", config.DefaultFile))
		}
	}
	for _, w := range cfg.Warnings {
		l.Warn(w)
	}

	return cfg, l, nil
}
