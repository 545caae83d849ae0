// Package history persists one ledger row per run so operators can audit
// what each sync planned and applied.
package history
