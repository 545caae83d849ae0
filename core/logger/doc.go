// Package logger builds the zap logger shared by every command.
//
// # Configuration
//
//   - Level: debug, info, warn, error
//   - Format: console (colored, ISO8601 timestamps) or json
//
// # Usage
//
//	log, err := logger.New(&cfg.Log)
//	log.Info("sync started", zap.String("stage", "assess"))
//
//	// In a request handler:
//	l := logger.WithRayID(log, c)
//	l.Error("plan failed", zap.Error(err))
package logger
