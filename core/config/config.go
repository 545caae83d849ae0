package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"sort"
	"strings"

	"ioc-sync/core/database"
	"ioc-sync/core/feed"
	"ioc-sync/core/history"
	"ioc-sync/core/inventory"
	"ioc-sync/core/logger"
	"ioc-sync/core/metrics"
	"ioc-sync/core/policy"
	"ioc-sync/core/reconcile"
	"ioc-sync/core/server"
	"ioc-sync/core/storage"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the optional settings file looked up next to the .env file.
const DefaultFile = "config.yaml"

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// API holds the inventory API endpoint and credentials.
	API inventory.Config `mapstructure:"api"`
	// Feed selects the feed source.
	Feed feed.Config `mapstructure:"feed"`
	// Policy holds the stage and action preferences.
	Policy policy.Config `mapstructure:"policy"`
	// Rollout scopes the rollout to host groups and orders priority tools.
	Rollout policy.RolloutConfig `mapstructure:"rollout"`
	// Safety excludes tools and domains.
	Safety policy.SafetyConfig `mapstructure:"safety"`
	// Apply holds the batch settings of write runs.
	Apply reconcile.Config `mapstructure:"apply"`
	// Server holds configuration for the HTTP server.
	Server server.Config `mapstructure:"server"`
	// Storage holds configuration for the object storage (e.g., S3, Minio).
	Storage storage.Config `mapstructure:"storage"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Database holds configuration for the database connection.
	Database database.Config `mapstructure:"database"`
	// History controls the run history.
	History history.Config `mapstructure:"history"`
	// Metrics controls the metrics output.
	Metrics metrics.Config `mapstructure:"metrics"`

	// Warnings lists problems found in the settings file that did not stop loading.
	Warnings []string `mapstructure:"-"`
}

// Options locates the configuration sources.
type Options struct {
	// Dir holds the .env file and the default settings file.
	Dir string
	// EnvFile overrides the .env location.
	EnvFile string
	// File overrides the settings file location. It must exist when set.
	File string
}

// legacyEnv maps keys to the unprefixed variable names older deployments export.
var legacyEnv = map[string]string{
	"api.base_url":      "BASE_URL",
	"api.client_id":     "CLIENT_ID",
	"api.client_secret": "CLIENT_SECRET",
}

// LoadConfig loads configuration from environment variables, the .env file, and
// config.yaml when present in path.
func LoadConfig(path string) (*Config, error) {
	return Load(Options{Dir: path})
}

// Load reads configuration. Environment variables take precedence over the
// settings file, which takes precedence over struct defaults.
func Load(opts Options) (*Config, error) {
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}

	envPath := opts.EnvFile
	if envPath == "" {
		envPath = join(dir, ".env")
	}

	// Ignore error if file doesn't exist (e.g. production)
	_ = godotenv.Overload(envPath)

	v := viper.New()

	// Recursively parse struct tags to set default values
	bindValues(v, Config{}, "")

	// Map environment variables to nested keys (e.g. SERVER_PORT -> server.port)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, name := range legacyEnv {
		if err := v.BindEnv(key, strings.ToUpper(strings.ReplaceAll(key, ".", "_")), name); err != nil {
			return nil, err
		}
	}

	file, required := opts.File, true
	if file == "" {
		file, required = join(dir, DefaultFile), false
	}

	var warnings []string
	if _, err := os.Stat(file); err == nil {
		v.SetConfigFile(file)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", file, err)
		}
		if warnings, err = unknownKeys(file); err != nil {
			return nil, err
		}
	} else if required || !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read config file %s: %w", file, err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	config.Warnings = warnings

	return &config, nil
}

// Sections returns the known top-level keys.
func Sections() []string {
	t := reflect.TypeOf(Config{})
	out := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("mapstructure")
		if tag == "" || tag == "-" {
			continue
		}
		out = append(out, tag)
	}
	return out
}

// unknownKeys reports top-level keys of the settings file that no section consumes.
func unknownKeys(file string) ([]string, error) {
	raw, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", file, err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", file, err)
	}

	known := make(map[string]struct{})
	for _, s := range Sections() {
		known[s] = struct{}{}
	}

	var warnings []string
	for key := range doc {
		if _, ok := known[strings.ToLower(key)]; !ok {
			warnings = append(warnings, fmt.Sprintf("unknown config section %q ignored", key))
		}
	}
	sort.Strings(warnings)
	return warnings, nil
}

func join(dir, name string) string {
	if dir == "." {
		return name
	}
	return strings.TrimSuffix(dir, "/") + "/" + name
}

// bindValues uses reflection to iterate over the struct and set default values in Viper
// based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	// If it's a pointer, get the element
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")

		// Skip if no tag or explicitly ignored
		if tag == "" || tag == "-" {
			continue
		}

		// Build the key
		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		// If it's a nested struct, recurse
		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		defaultValue := field.Tag.Get("default")
		// Always set default (even if empty) to register the key for AutomaticEnv
		v.SetDefault(key, defaultValue)
	}
}
