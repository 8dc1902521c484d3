// Package s3 provides an AWS S3 implementation of filestore.Store built on
// aws-sdk-go-v2. Credentials are static; the region comes from the config.
package s3

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscreds "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/koustreak/bucketgallery/internal/errs"
	"github.com/koustreak/bucketgallery/internal/filestore"
)

// Driver is an AWS S3 implementation of filestore.Store.
// It is safe for concurrent use by multiple goroutines.
type Driver struct {
	client  *s3.Client
	presign *s3.PresignClient
}

// New builds an S3 client for cfg. Static credentials from cfg take
// precedence over anything in the environment or shared config files.
func New(ctx context.Context, cfg *filestore.Config) (*Driver, error) {
	if cfg.Region == "" {
		return nil, errs.New(errs.ErrKindConfiguration, "s3 region is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			awscreds.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConfiguration, "failed to load AWS config", err)
	}

	return NewFromConfig(awsCfg, cfg.Endpoint, cfg.UseSSL), nil
}

// NewFromConfig wraps an already loaded aws.Config. A non-empty endpoint
// switches the client to path-style addressing against that host.
func NewFromConfig(awsCfg aws.Config, endpoint string, useSSL bool) *Driver {
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpointURL(endpoint, useSSL))
			o.UsePathStyle = true
		}
	})

	return &Driver{
		client:  client,
		presign: s3.NewPresignClient(client),
	}
}

// --- filestore.Store implementation ---

// Ping issues a HeadBucket against bucket.
func (d *Driver) Ping(ctx context.Context, bucket string) error {
	_, err := d.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
	if err != nil {
		return mapError(err, "ping failed")
	}
	return nil
}

// Close is a no-op; the SDK's HTTP client is shared and idle connections are
// reclaimed by the transport.
func (d *Driver) Close() error {
	return nil
}

// ListObjects issues a single ListObjectsV2 call. Limit maps to MaxKeys and
// no continuation token is followed.
func (d *Driver) ListObjects(ctx context.Context, bucket string, opts filestore.ListOptions) ([]filestore.ObjectInfo, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
	}
	if !opts.Recursive {
		input.Delimiter = aws.String("/")
	}
	if opts.Limit > 0 {
		input.MaxKeys = aws.Int32(int32(opts.Limit))
	}

	out, err := d.client.ListObjectsV2(ctx, input)
	if err != nil {
		return nil, mapError(err, "failed to list objects")
	}

	results := make([]filestore.ObjectInfo, 0, len(out.Contents)+len(out.CommonPrefixes))
	for _, p := range out.CommonPrefixes {
		results = append(results, filestore.ObjectInfo{
			Key:   aws.ToString(p.Prefix),
			Size:  0,
			IsDir: true,
		})
	}
	for _, obj := range out.Contents {
		results = append(results, toObjectInfo(obj))
	}

	if opts.Limit > 0 && len(results) > opts.Limit {
		results = results[:opts.Limit]
	}
	return results, nil
}

// PresignGetURL signs a GetObject request locally; no request is sent.
func (d *Driver) PresignGetURL(ctx context.Context, bucket, key string, ttl time.Duration, opts filestore.PresignOptions) (string, error) {
	input := &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}
	if opts.DownloadName != "" {
		input.ResponseContentDisposition = aws.String(fmt.Sprintf("attachment; filename=%q", opts.DownloadName))
	}

	req, err := d.presign.PresignGetObject(ctx, input, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", mapError(err, "failed to generate presigned URL")
	}
	return req.URL, nil
}

// PutObject uploads body with a private canned ACL.
func (d *Driver) PutObject(ctx context.Context, bucket, key string, body io.Reader, size int64, opts filestore.PutOptions) (*filestore.ObjectInfo, error) {
	input := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   body,
		ACL:    types.ObjectCannedACLPrivate,
	}
	if opts.ContentType != "" {
		input.ContentType = aws.String(opts.ContentType)
	}
	if size >= 0 {
		input.ContentLength = aws.Int64(size)
	}

	out, err := d.client.PutObject(ctx, input)
	if err != nil {
		return nil, mapError(err, "failed to upload object")
	}

	return &filestore.ObjectInfo{
		Key:          key,
		Size:         size,
		ContentType:  opts.ContentType,
		ETag:         strings.Trim(aws.ToString(out.ETag), `"`),
		LastModified: time.Now(),
	}, nil
}

// --- internal helpers ---

// toObjectInfo converts a listing entry. Missing fields stay distinguishable:
// nil Size becomes filestore.UnknownSize and nil LastModified the zero time.
func toObjectInfo(obj types.Object) filestore.ObjectInfo {
	info := filestore.ObjectInfo{
		Key:  aws.ToString(obj.Key),
		Size: filestore.UnknownSize,
		ETag: strings.Trim(aws.ToString(obj.ETag), `"`),
	}
	if obj.Size != nil {
		info.Size = *obj.Size
	}
	if obj.LastModified != nil {
		info.LastModified = *obj.LastModified
	}
	info.IsDir = strings.HasSuffix(info.Key, "/")
	return info
}

func endpointURL(endpoint string, useSSL bool) string {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	if useSSL {
		return "https://" + endpoint
	}
	return "http://" + endpoint
}
