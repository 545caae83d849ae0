package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"ioc-sync/core/storage"

	"github.com/minio/minio-go/v7"
)

// Marshal renders the summary as indented JSON.
func Marshal(s Summary) ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// WriteJSON writes the summary to file, creating parent directories.
func WriteJSON(file string, s Summary) error {
	data, err := Marshal(s)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	if dir := filepath.Dir(file); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create summary directory: %w", err)
		}
	}
	if err := os.WriteFile(file, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}

// ObjectName returns the archive object name for a summary under prefix.
func ObjectName(prefix string, s Summary) string {
	stamp := s.GeneratedAt
	if t, err := time.Parse("2006-01-02T15:04:05Z", s.GeneratedAt); err == nil {
		stamp = t.Format("20060102T150405Z")
	}
	return path.Join(prefix, fmt.Sprintf("%s-%s.json", stamp, s.Stage))
}

// Upload archives the summary in bucket, creating the bucket if needed.
func Upload(ctx context.Context, client storage.Client, bucket, object string, s Summary) (minio.UploadInfo, error) {
	data, err := Marshal(s)
	if err != nil {
		return minio.UploadInfo{}, fmt.Errorf("encode summary: %w", err)
	}

	if err := storage.EnsureBucket(ctx, client, bucket); err != nil {
		return minio.UploadInfo{}, err
	}

	info, err := client.PutObject(ctx, bucket, object, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return minio.UploadInfo{}, fmt.Errorf("upload summary %s: %w", object, err)
	}
	return info, nil
}
