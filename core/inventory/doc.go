// Package inventory is a thin typed client for the remote indicator
// inventory REST API. It implements the collaborator interfaces of the
// reconcile, prevalence and policy packages.
//
// Responses decode into a common envelope; fields the client does not use
// are ignored. A status of 400 or above without an errors array is an error.
// Mutation responses with an errors array are returned as per-item errors so
// callers can treat them as partial failures.
package inventory
