// Package middleware contains HTTP middleware for the serve command.
//
// # Components
//
//   - auth: API key validation for the read-only endpoints.
//   - rayid: a per-request id stored in locals and echoed in the X-Ray-ID header.
package middleware
