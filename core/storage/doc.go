// Package storage archives run summaries in S3 compatible object storage.
//
// It wraps the MinIO Go client behind the Client interface so archive code
// can be tested against core/storage/mocks. Both AWS S3 and self-hosted MinIO
// are supported.
//
// # Helpers
//
//   - EnsureBucket: creates the archive bucket on first use.
//   - List: lists archived objects under a prefix in key order.
//   - Retain: deletes the oldest objects beyond a retention count.
//
// # Usage
//
//	client, err := storage.NewClient(cfg.Storage)
//	err = storage.EnsureBucket(ctx, client, cfg.Storage.Bucket)
package storage
