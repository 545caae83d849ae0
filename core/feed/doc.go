// Package feed turns the raw LOLRMM tool feed into normalized domain entries.
//
// The feed lists remote monitoring and management tools, each declaring network
// artifacts with domain strings of varying quality (URLs, wildcards, ports,
// placeholders, IP literals). This package canonicalizes those strings, rejects
// anything that cannot be submitted as a domain indicator, collapses duplicates
// and aggregates tool attribution per domain.
//
// # Pipeline
//
// For every tool not in the excluded set, each declared domain is normalized and
// then checked in order:
//   - placeholder values ("unknown", "n/a", ...)
//   - IPv4 literals
//   - structural domain form
//   - excluded domains
//   - (domain, tool) pair duplicates
//
// The first failing check increments its counter in Stats and the domain is skipped.
//
// # Usage
//
//	tools, err := feed.NewHTTPFetcher(cfg.Feed.URL, timeout).Fetch(ctx)
//	entries, stats := feed.Collect(tools, feed.Policy{PriorityTools: cfg.Rollout.PriorityPlatforms})
package feed
