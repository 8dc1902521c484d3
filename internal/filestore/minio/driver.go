// Package minio provides a MinIO implementation of filestore.Store.
// It works against any S3-compatible endpoint (MinIO, Ceph, R2, Spaces).
//
// Usage:
//
//	cfg := &filestore.Config{Provider: filestore.ProviderMinIO, Endpoint: "localhost:9000", ...}
//	store, err := minio.New(cfg)
//	if err != nil { ... }
//	defer store.Close()
//
//	objects, err := store.ListObjects(ctx, "photos", filestore.ListOptions{Recursive: true})
package minio

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/koustreak/bucketgallery/internal/errs"
	"github.com/koustreak/bucketgallery/internal/filestore"
	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Driver is a MinIO implementation of filestore.Store.
// It is safe for concurrent use by multiple goroutines.
type Driver struct {
	client *miniogo.Client
}

// New builds a MinIO client from cfg. It does no network I/O; call Ping to
// check that the bucket is reachable.
func New(cfg *filestore.Config) (*Driver, error) {
	if cfg.Endpoint == "" {
		return nil, errs.New(errs.ErrKindConfiguration, "minio endpoint is required")
	}

	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConfiguration, "failed to create minio client", err)
	}

	return &Driver{client: client}, nil
}

// --- filestore.Store implementation ---

// Ping verifies the bucket exists and the credentials can see it.
func (d *Driver) Ping(ctx context.Context, bucket string) error {
	ok, err := d.client.BucketExists(ctx, bucket)
	if err != nil {
		return mapError(err, "ping failed")
	}
	if !ok {
		return errs.New(errs.ErrKindNotFound, fmt.Sprintf("bucket %q does not exist", bucket))
	}
	return nil
}

// Close is a no-op for MinIO; the SDK client holds no persistent connections.
func (d *Driver) Close() error {
	return nil
}

// ListObjects returns objects in bucket that match opts.
func (d *Driver) ListObjects(ctx context.Context, bucket string, opts filestore.ListOptions) ([]filestore.ObjectInfo, error) {
	ctx, cancel := context.WithCancel(ctx)
	// Stops the SDK's listing goroutine when we leave early at Limit.
	defer cancel()

	listOpts := miniogo.ListObjectsOptions{
		Recursive: opts.Recursive,
		MaxKeys:   opts.Limit,
	}

	var results []filestore.ObjectInfo
	for obj := range d.client.ListObjects(ctx, bucket, listOpts) {
		if obj.Err != nil {
			return nil, mapError(obj.Err, "failed to list objects")
		}

		results = append(results, toObjectInfo(obj))

		if opts.Limit > 0 && len(results) >= opts.Limit {
			break
		}
	}

	return results, nil
}

// PresignGetURL returns a time-limited public download URL for the object.
func (d *Driver) PresignGetURL(ctx context.Context, bucket, key string, ttl time.Duration, opts filestore.PresignOptions) (string, error) {
	var params url.Values
	if opts.DownloadName != "" {
		params = url.Values{}
		params.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", opts.DownloadName))
	}

	u, err := d.client.PresignedGetObject(ctx, bucket, key, ttl, params)
	if err != nil {
		return "", mapError(err, "failed to generate presigned URL")
	}
	return u.String(), nil
}

// PutObject uploads body under key. MinIO objects are private unless a
// bucket policy says otherwise, so no ACL is sent.
func (d *Driver) PutObject(ctx context.Context, bucket, key string, body io.Reader, size int64, opts filestore.PutOptions) (*filestore.ObjectInfo, error) {
	info, err := d.client.PutObject(ctx, bucket, key, body, size, miniogo.PutObjectOptions{
		ContentType: opts.ContentType,
	})
	if err != nil {
		return nil, mapError(err, "failed to upload object")
	}

	return &filestore.ObjectInfo{
		Key:          info.Key,
		Size:         info.Size,
		ContentType:  opts.ContentType,
		ETag:         info.ETag,
		LastModified: info.LastModified,
	}, nil
}

// --- internal helpers ---

func toObjectInfo(obj miniogo.ObjectInfo) filestore.ObjectInfo {
	return filestore.ObjectInfo{
		Key:          obj.Key,
		Size:         obj.Size,
		ContentType:  obj.ContentType,
		ETag:         obj.ETag,
		LastModified: obj.LastModified,
		IsDir:        strings.HasSuffix(obj.Key, "/"),
	}
}
