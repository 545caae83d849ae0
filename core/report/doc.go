// Package report builds the machine-readable run summary and publishes it
// to disk or object storage.
package report
