// Package server holds the HTTP server configuration of the serve command:
// listen port, API key and the snapshot cache lifetime.
package server
