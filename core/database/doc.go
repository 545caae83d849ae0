// Package database opens the gorm connection backing the run history.
//
// MySQL is the production driver; SQLite serves local runs and tests.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Warn("history disabled", zap.Error(err))
//	}
package database
