// Package indicators runs the LOLRMM to inventory pipeline and exposes it over HTTP.
//
// Service ties the packages together: it fetches and collects the feed,
// resolves the stage policy against the tenant, plans against the managed
// snapshot and applies the plan. Run and RemoveAll back the CLI; Preview,
// Prevalence, Status and History back the read-only routes:
//
//	GET /indicators/plan        dry-run plan counts and samples
//	GET /indicators/prevalence  device prevalence of the desired domains
//	GET /indicators/status      managed record count
//	GET /indicators/history     recent runs
//
// Every finished run is recorded in the run history and, when configured,
// its summary is archived to object storage.
package indicators
