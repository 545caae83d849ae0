package history

// Config controls the run ledger.
type Config struct {
	// Enabled turns run recording on.
	Enabled bool `mapstructure:"enabled" default:"true"`
	// Prefix is prepended to archived summary object names.
	Prefix string `mapstructure:"prefix" default:"runs"`
	// Keep is the number of archived summaries retained. Zero keeps all.
	Keep int `mapstructure:"keep" default:"200"`
}
