// Package filestore defines the unified interface for object storage backends.
//
// All providers (S3, MinIO, Azure Blob) implement the Store interface.
// Callers depend only on this package, never on a specific provider package;
// the backends package picks the implementation from Config.Provider.
//
// Usage:
//
//	cfg := &filestore.Config{Provider: filestore.ProviderS3, Region: "us-east-1", DefaultBucket: "photos", ...}
//	store, err := backends.Open(ctx, cfg)
//	if err != nil { ... }
//	defer store.Close()
//
//	objects, err := store.ListObjects(ctx, cfg.DefaultBucket, filestore.ListOptions{Limit: 1000})
package filestore

import (
	"context"
	"io"
	"time"
)

// Store is the single interface all file storage providers must implement.
type Store interface {
	// Ping verifies the bucket is reachable with the configured credentials.
	Ping(ctx context.Context, bucket string) error

	// Close releases any held resources (connections, goroutines, etc.).
	Close() error

	// ListObjects returns the objects in bucket that match opts.
	// Virtual directory entries (common prefixes) are included when opts.Recursive is false.
	ListObjects(ctx context.Context, bucket string, opts ListOptions) ([]ObjectInfo, error)

	// PresignGetURL returns a time-limited URL that allows anyone to download
	// the object at key inside bucket without credentials.
	// It performs no network I/O for providers that sign locally.
	PresignGetURL(ctx context.Context, bucket, key string, ttl time.Duration, opts PresignOptions) (string, error)

	// PutObject uploads body to key inside bucket with private access,
	// creating or overwriting the object. size may be -1 when unknown.
	PutObject(ctx context.Context, bucket, key string, body io.Reader, size int64, opts PutOptions) (*ObjectInfo, error)
}
