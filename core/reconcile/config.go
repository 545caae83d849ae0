package reconcile

import "time"

// Config holds the batch settings of a write run.
type Config struct {
	// ChunkCreate is the create batch size.
	ChunkCreate int `mapstructure:"chunk_create" default:"200"`
	// ChunkUpdate is the update batch size.
	ChunkUpdate int `mapstructure:"chunk_update" default:"200"`
	// ChunkDelete is the delete batch size.
	ChunkDelete int `mapstructure:"chunk_delete" default:"500"`
	// CallTimeoutSeconds bounds each batch call. Zero disables the per-call timeout.
	CallTimeoutSeconds int `mapstructure:"call_timeout_seconds" default:"120"`
}

// Options converts the configuration into apply options.
func (c Config) Options() ReconcileOptions {
	return ReconcileOptions{
		ChunkCreate: c.ChunkCreate,
		ChunkUpdate: c.ChunkUpdate,
		ChunkDelete: c.ChunkDelete,
		CallTimeout: time.Duration(c.CallTimeoutSeconds) * time.Second,
	}
}
