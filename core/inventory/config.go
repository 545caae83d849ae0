package inventory

// Config holds connection settings for the remote indicator inventory.
type Config struct {
	// BaseURL is the API root, e.g. https://api.us-2.crowdstrike.com.
	BaseURL string `mapstructure:"base_url" default:"https://api.crowdstrike.com"`
	// ClientID is the API client id.
	ClientID string `mapstructure:"client_id" default:""`
	// ClientSecret is the API client secret.
	ClientSecret string `mapstructure:"client_secret" default:""`
	// TimeoutSeconds bounds each HTTP request.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"60"`
}

// HasCredentials reports whether both client credentials are set.
func (c Config) HasCredentials() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}
