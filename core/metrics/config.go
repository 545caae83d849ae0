package metrics

// Config controls metrics export.
type Config struct {
	// Textfile is a path where one-shot commands write their metrics in the
	// Prometheus text format. Empty disables it.
	Textfile string `mapstructure:"textfile" default:""`
}
