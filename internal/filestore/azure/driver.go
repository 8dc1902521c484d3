// Package azure provides an Azure Blob Storage implementation of
// filestore.Store. The access key is the storage account name, the secret is
// the account key and the bucket is a container.
package azure

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/sas"

	"github.com/koustreak/bucketgallery/internal/errs"
	"github.com/koustreak/bucketgallery/internal/filestore"
)

// Driver is an Azure Blob implementation of filestore.Store.
// It is safe for concurrent use by multiple goroutines.
type Driver struct {
	client *azblob.Client
	cred   *azblob.SharedKeyCredential
}

// New builds a shared-key client for the account named by cfg.AccessKey.
func New(cfg *filestore.Config) (*Driver, error) {
	cred, err := azblob.NewSharedKeyCredential(cfg.AccessKey, cfg.SecretKey)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConfiguration, "invalid azure account key", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL(cfg), cred, nil)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConfiguration, "failed to create azure client", err)
	}

	return &Driver{client: client, cred: cred}, nil
}

// --- filestore.Store implementation ---

// Ping reads the container properties.
func (d *Driver) Ping(ctx context.Context, bucket string) error {
	_, err := d.client.ServiceClient().NewContainerClient(bucket).GetProperties(ctx, nil)
	if err != nil {
		return mapError(err, "ping failed")
	}
	return nil
}

// Close is a no-op for Azure.
func (d *Driver) Close() error {
	return nil
}

// ListObjects reads a single page of a flat listing; Limit maps to MaxResults.
// Azure has no real directories, so Recursive=false is treated the same.
func (d *Driver) ListObjects(ctx context.Context, bucket string, opts filestore.ListOptions) ([]filestore.ObjectInfo, error) {
	listOpts := &azblob.ListBlobsFlatOptions{}
	if opts.Limit > 0 {
		listOpts.MaxResults = to.Ptr(int32(opts.Limit))
	}

	pager := d.client.NewListBlobsFlatPager(bucket, listOpts)
	if !pager.More() {
		return nil, nil
	}

	page, err := pager.NextPage(ctx)
	if err != nil {
		return nil, mapError(err, "failed to list objects")
	}
	if page.Segment == nil {
		return nil, nil
	}

	results := make([]filestore.ObjectInfo, 0, len(page.Segment.BlobItems))
	for _, item := range page.Segment.BlobItems {
		results = append(results, toObjectInfo(item))
	}
	if opts.Limit > 0 && len(results) > opts.Limit {
		results = results[:opts.Limit]
	}
	return results, nil
}

// PresignGetURL returns a read-only blob SAS URL signed locally with the
// account key. DownloadName is carried in the SAS as the response
// Content-Disposition.
func (d *Driver) PresignGetURL(_ context.Context, bucket, key string, ttl time.Duration, opts filestore.PresignOptions) (string, error) {
	now := time.Now().UTC()
	values := sas.BlobSignatureValues{
		StartTime:     now.Add(-10 * time.Second),
		ExpiryTime:    now.Add(ttl),
		Permissions:   (&sas.BlobPermissions{Read: true}).String(),
		ContainerName: bucket,
		BlobName:      key,
	}
	if opts.DownloadName != "" {
		values.ContentDisposition = fmt.Sprintf("attachment; filename=%q", opts.DownloadName)
	}

	params, err := values.SignWithSharedKey(d.cred)
	if err != nil {
		return "", mapError(err, "failed to generate SAS URL")
	}

	blobClient := d.client.ServiceClient().NewContainerClient(bucket).NewBlobClient(key)
	return blobClient.URL() + "?" + params.Encode(), nil
}

// PutObject streams body into a block blob. Blobs are private unless the
// container grants public access.
func (d *Driver) PutObject(ctx context.Context, bucket, key string, body io.Reader, size int64, opts filestore.PutOptions) (*filestore.ObjectInfo, error) {
	uploadOpts := &azblob.UploadStreamOptions{}
	if opts.ContentType != "" {
		uploadOpts.HTTPHeaders = &blob.HTTPHeaders{BlobContentType: to.Ptr(opts.ContentType)}
	}

	resp, err := d.client.UploadStream(ctx, bucket, key, body, uploadOpts)
	if err != nil {
		return nil, mapError(err, "failed to upload object")
	}

	info := &filestore.ObjectInfo{
		Key:         key,
		Size:        size,
		ContentType: opts.ContentType,
	}
	if resp.ETag != nil {
		info.ETag = strings.Trim(string(*resp.ETag), `"`)
	}
	if resp.LastModified != nil {
		info.LastModified = *resp.LastModified
	}
	return info, nil
}

// --- internal helpers ---

func toObjectInfo(item *container.BlobItem) filestore.ObjectInfo {
	info := filestore.ObjectInfo{Size: filestore.UnknownSize}
	if item.Name != nil {
		info.Key = *item.Name
	}
	if p := item.Properties; p != nil {
		if p.ContentLength != nil {
			info.Size = *p.ContentLength
		}
		if p.LastModified != nil {
			info.LastModified = *p.LastModified
		}
		if p.ContentType != nil {
			info.ContentType = *p.ContentType
		}
		if p.ETag != nil {
			info.ETag = strings.Trim(string(*p.ETag), `"`)
		}
	}
	return info
}

func serviceURL(cfg *filestore.Config) string {
	if cfg.Endpoint == "" {
		return fmt.Sprintf("https://%s.blob.core.windows.net/", cfg.AccessKey)
	}
	endpoint := cfg.Endpoint
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		if cfg.UseSSL {
			endpoint = "https://" + endpoint
		} else {
			endpoint = "http://" + endpoint
		}
	}
	return strings.TrimSuffix(endpoint, "/") + "/"
}
