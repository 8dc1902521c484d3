// Package imagestore is the gallery's object-store client: it lists the
// images in the configured bucket, signs short-lived URLs for them and
// uploads new ones.
//
// A Client is built from an explicitly passed credential record and stays
// bound to it until Reconfigure is called.
package imagestore

import (
	"context"
	"io"
	"mime"
	"path"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/koustreak/bucketgallery/internal/credentials"
	"github.com/koustreak/bucketgallery/internal/errs"
	"github.com/koustreak/bucketgallery/internal/filestore"
	"github.com/koustreak/bucketgallery/internal/filestore/backends"
	"github.com/koustreak/bucketgallery/internal/logger"
)

const (
	// DefaultURLExpiry is the lifetime of every signed URL.
	DefaultURLExpiry = time.Hour

	// DefaultPageSize caps the single listing request.
	DefaultPageSize        = 1000
	defaultSignConcurrency = 8
)

// Opener builds a filestore.Store; backends.Open in production.
type Opener func(ctx context.Context, cfg *filestore.Config) (filestore.Store, error)

// Options tunes a Client. Zero values fall back to the defaults above.
// URL lifetime and page size are fixed and not configurable.
type Options struct {
	Provider filestore.Provider
	Endpoint string
	UseSSL   bool

	SignConcurrency int

	Open   Opener
	Now    func() time.Time
	Logger *logger.Logger
}

func (o Options) withDefaults() Options {
	if o.SignConcurrency <= 0 {
		o.SignConcurrency = defaultSignConcurrency
	}
	if o.Open == nil {
		o.Open = backends.Open
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Logger == nil {
		o.Logger = logger.Nop()
	}
	return o
}

// Upload is the content handed to UploadImage.
type Upload struct {
	// Filename is the original file name; it seeds the generated key.
	Filename string
	// ContentType is stored with the object. Empty means guess from the key.
	ContentType string
	// Size in bytes, or -1 when unknown.
	Size int64
	Body io.Reader
}

// Client mediates every read and write against the remote bucket.
// It is safe for concurrent use.
type Client struct {
	opts Options
	log  *logger.Logger

	mu     sync.RWMutex
	store  filestore.Store
	bucket string
}

// New builds a client for creds. Incomplete credentials, or a backend that
// refuses them, leave the client unconfigured; the reason is logged.
func New(ctx context.Context, creds *credentials.Credentials, opts Options) *Client {
	opts = opts.withDefaults()
	c := &Client{
		opts: opts,
		log:  opts.Logger.Component("imagestore"),
	}
	if creds == nil {
		return c
	}
	if err := c.Reconfigure(ctx, *creds); err != nil {
		c.log.WarnWith("storage client not configured", err, nil)
	}
	return c
}

// IsConfigured reports whether credentials were loaded and a backend handle
// was built.
func (c *Client) IsConfigured() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store != nil
}

// Bucket returns the bucket the client is bound to, or "".
func (c *Client) Bucket() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.bucket
}

// Reconfigure rebinds the client to creds. On failure the client is left
// unconfigured rather than bound to stale credentials.
func (c *Client) Reconfigure(ctx context.Context, creds credentials.Credentials) error {
	store, err := c.open(ctx, creds)

	c.mu.Lock()
	old := c.store
	c.store = store
	c.bucket = ""
	if store != nil {
		c.bucket = creds.BucketName
	}
	c.mu.Unlock()

	if old != nil {
		old.Close()
	}
	if err != nil {
		return err
	}

	c.log.With().Str("bucket", creds.BucketName).Str("region", creds.Region).Logger().
		Info("storage client configured")
	return nil
}

func (c *Client) open(ctx context.Context, creds credentials.Credentials) (filestore.Store, error) {
	if !creds.Complete() {
		return nil, errs.New(errs.ErrKindConfiguration, "incomplete credentials")
	}

	store, err := c.opts.Open(ctx, &filestore.Config{
		Provider:      c.opts.Provider,
		Endpoint:      c.opts.Endpoint,
		UseSSL:        c.opts.UseSSL,
		AccessKey:     creds.AccessKeyID,
		SecretKey:     creds.SecretAccessKey,
		Region:        creds.Region,
		DefaultBucket: creds.BucketName,
	})
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConfiguration, "failed to initialise storage client", err)
	}
	return store, nil
}

func (c *Client) handle(msg string) (filestore.Store, string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.store == nil {
		return nil, "", errs.New(errs.ErrKindConfiguration, msg)
	}
	return c.store, c.bucket, nil
}

// Close releases the backend handle. The client is unconfigured afterwards.
func (c *Client) Close() error {
	c.mu.Lock()
	store := c.store
	c.store, c.bucket = nil, ""
	c.mu.Unlock()

	if store == nil {
		return nil
	}
	return store.Close()
}

// Ping checks that the configured bucket is reachable.
func (c *Client) Ping(ctx context.Context) error {
	store, bucket, err := c.handle("storage not configured")
	if err != nil {
		return err
	}
	if err := store.Ping(ctx, bucket); err != nil {
		return remote("bucket unreachable", err)
	}
	return nil
}

// ListImages reads one page of at most DefaultPageSize objects, keeps the images,
// signs a URL for each and returns them newest first. Any retained object
// without a key, modification time or size fails the whole call.
func (c *Client) ListImages(ctx context.Context) ([]ImageEntry, error) {
	store, bucket, err := c.handle("storage not configured: please provide your bucket credentials")
	if err != nil {
		return nil, err
	}

	objects, err := store.ListObjects(ctx, bucket, filestore.ListOptions{
		Recursive: true,
		Limit:     DefaultPageSize,
	})
	if err != nil {
		return nil, remote("failed to fetch images", err)
	}

	var images []filestore.ObjectInfo
	for _, obj := range objects {
		if obj.IsDir || !IsImageKey(obj.Key) {
			continue
		}
		if obj.Key == "" || obj.LastModified.IsZero() || obj.Size < 0 {
			return nil, errs.Wrap(errs.ErrKindRemote, "failed to fetch images",
				errs.New(errs.ErrKindRemote, "invalid object data"))
		}
		images = append(images, obj)
	}

	now := c.opts.Now()
	expires := now.Add(DefaultURLExpiry)
	entries := make([]ImageEntry, len(images))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.SignConcurrency)
	for i, obj := range images {
		g.Go(func() error {
			url, err := store.PresignGetURL(gctx, bucket, obj.Key, DefaultURLExpiry, filestore.PresignOptions{})
			if err != nil {
				return err
			}
			entries[i] = ImageEntry{
				Key:          obj.Key,
				URL:          url,
				LastModified: obj.LastModified,
				Size:         obj.Size,
				ExpiresAt:    expires,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, remote("failed to fetch images", err)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].LastModified.After(entries[j].LastModified)
	})

	c.log.With().Str("bucket", bucket).Int("objects", len(objects)).Int("images", len(entries)).Logger().
		Debug("listed images")
	return entries, nil
}

// UploadImage stores up.Body under key, or under UploadKey when key is empty,
// and returns the key written.
func (c *Client) UploadImage(ctx context.Context, up Upload, key string) (string, error) {
	store, bucket, err := c.handle("storage not configured")
	if err != nil {
		return "", err
	}
	if up.Body == nil {
		return "", errs.New(errs.ErrKindValidation, "upload has no content")
	}
	if key == "" {
		if up.Filename == "" {
			return "", errs.New(errs.ErrKindValidation, "upload needs a file name or a key")
		}
		key = UploadKey(c.opts.Now(), up.Filename)
	}

	contentType := up.ContentType
	if contentType == "" {
		contentType = mime.TypeByExtension(path.Ext(key))
	}

	if _, err := store.PutObject(ctx, bucket, key, up.Body, up.Size, filestore.PutOptions{ContentType: contentType}); err != nil {
		return "", remote("failed to upload image", err)
	}

	c.log.With().Str("bucket", bucket).Str("key", key).Logger().Info("image uploaded")
	return key, nil
}

// DownloadURL signs a URL that serves key as an attachment named after its
// last path segment.
func (c *Client) DownloadURL(ctx context.Context, key string) (string, error) {
	store, bucket, err := c.handle("storage not configured")
	if err != nil {
		return "", err
	}

	url, err := store.PresignGetURL(ctx, bucket, key, DefaultURLExpiry, filestore.PresignOptions{
		DownloadName: DisplayName(key),
	})
	if err != nil {
		return "", remote("failed to sign download URL", err)
	}
	return url, nil
}

// remote wraps err under msg, keeping a more specific remote kind when the
// driver supplied one.
func remote(msg string, err error) error {
	kind := errs.ErrKindRemote
	if errs.IsRemote(err) {
		kind = errs.KindOf(err)
	}
	return errs.Wrap(kind, msg, err)
}
