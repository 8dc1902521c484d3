package imagestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/bucketgallery/internal/credentials"
	"github.com/koustreak/bucketgallery/internal/errs"
	"github.com/koustreak/bucketgallery/internal/filestore"
)

var (
	t0    = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	creds = credentials.Credentials{
		AccessKeyID:     "AKIAEXAMPLE",
		SecretAccessKey: "secret",
		Region:          "us-east-1",
		BucketName:      "photos",
	}
)

func newClient(t *testing.T, store *fakeStore) *Client {
	t.Helper()
	c := New(context.Background(), &creds, Options{
		Open: opener(store, nil),
		Now:  func() time.Time { return t0 },
	})
	require.True(t, c.IsConfigured())
	return c
}

func obj(key string, size int64, mod time.Time) filestore.ObjectInfo {
	return filestore.ObjectInfo{Key: key, Size: size, LastModified: mod}
}

func TestNew_Configured(t *testing.T) {
	var seen []filestore.Config
	c := New(context.Background(), &creds, Options{
		Provider: filestore.ProviderMinIO,
		Endpoint: "localhost:9000",
		Open:     opener(&fakeStore{}, &seen),
	})

	assert.True(t, c.IsConfigured())
	assert.Equal(t, "photos", c.Bucket())
	require.Len(t, seen, 1)
	assert.Equal(t, filestore.Config{
		Provider:      filestore.ProviderMinIO,
		Endpoint:      "localhost:9000",
		AccessKey:     "AKIAEXAMPLE",
		SecretKey:     "secret",
		Region:        "us-east-1",
		DefaultBucket: "photos",
	}, seen[0])
}

func TestNew_Unconfigured(t *testing.T) {
	failing := func(context.Context, *filestore.Config) (filestore.Store, error) {
		return nil, errors.New("bad key")
	}
	partial := creds
	partial.BucketName = ""

	tests := []struct {
		name  string
		creds *credentials.Credentials
		open  Opener
	}{
		{name: "no credentials", creds: nil, open: opener(&fakeStore{}, nil)},
		{name: "incomplete credentials", creds: &partial, open: opener(&fakeStore{}, nil)},
		{name: "backend refuses", creds: &creds, open: failing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(context.Background(), tt.creds, Options{Open: tt.open})
			assert.False(t, c.IsConfigured())

			_, err := c.ListImages(context.Background())
			assert.True(t, errs.IsConfiguration(err))

			_, err = c.UploadImage(context.Background(), Upload{Filename: "a.png", Body: strings.NewReader("x")}, "")
			assert.True(t, errs.IsConfiguration(err))

			_, err = c.DownloadURL(context.Background(), "a.png")
			assert.True(t, errs.IsConfiguration(err))
		})
	}
}

func TestListImages_FiltersToImages(t *testing.T) {
	t1 := t0.Add(-2 * time.Hour)
	t2 := t0.Add(-time.Hour)
	store := &fakeStore{objects: []filestore.ObjectInfo{
		obj("photos/a.png", 100, t1),
		obj("docs/readme.txt", 5, t2),
	}}

	entries, err := newClient(t, store).ListImages(context.Background())
	require.NoError(t, err)

	require.Len(t, entries, 1)
	assert.Equal(t, "photos/a.png", entries[0].Key)
	assert.Equal(t, int64(100), entries[0].Size)
	assert.Equal(t, t1, entries[0].LastModified)
}

func TestListImages_Extensions(t *testing.T) {
	var objects []filestore.ObjectInfo
	keys := []string{
		"a.jpg", "b.JPEG", "c.Png", "d.gif", "e.bmp", "f.webp", "g.SVG",
		"h.tiff", "i.png.bak", "jpg", "notes.md", "dir/",
	}
	for i, k := range keys {
		o := obj(k, int64(i), t0.Add(time.Duration(i)*time.Minute))
		o.IsDir = strings.HasSuffix(k, "/")
		objects = append(objects, o)
	}

	entries, err := newClient(t, &fakeStore{objects: objects}).ListImages(context.Background())
	require.NoError(t, err)

	var got []string
	for _, e := range entries {
		assert.True(t, IsImageKey(e.Key), e.Key)
		got = append(got, e.Key)
	}
	assert.ElementsMatch(t, []string{"a.jpg", "b.JPEG", "c.Png", "d.gif", "e.bmp", "f.webp", "g.SVG"}, got)
}

func TestListImages_NewestFirst(t *testing.T) {
	store := &fakeStore{objects: []filestore.ObjectInfo{
		obj("old.png", 1, t0.Add(-3*time.Hour)),
		obj("new.png", 1, t0),
		obj("mid.png", 1, t0.Add(-time.Hour)),
		obj("mid2.png", 1, t0.Add(-time.Hour)),
	}}

	entries, err := newClient(t, store).ListImages(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 4)

	assert.Equal(t, "new.png", entries[0].Key)
	assert.Equal(t, "old.png", entries[3].Key)
	for i := 1; i < len(entries); i++ {
		assert.False(t, entries[i].LastModified.After(entries[i-1].LastModified))
	}
}

func TestListImages_PageSize(t *testing.T) {
	objects := make([]filestore.ObjectInfo, 1500)
	for i := range objects {
		objects[i] = obj(fmt.Sprintf("img/%04d.jpg", i), 10, t0.Add(time.Duration(i)*time.Second))
	}
	store := &fakeStore{objects: objects}

	entries, err := newClient(t, store).ListImages(context.Background())
	require.NoError(t, err)

	assert.Len(t, entries, 1000)
	require.Len(t, store.listOpts, 1, "a single listing request, no pagination")
	assert.Equal(t, 1000, store.listOpts[0].Limit)
	assert.True(t, store.listOpts[0].Recursive)
}

func TestListImages_SignedURLs(t *testing.T) {
	store := &fakeStore{objects: []filestore.ObjectInfo{obj("a.png", 1, t0)}}
	c := newClient(t, store)

	first, err := c.ListImages(context.Background())
	require.NoError(t, err)
	second, err := c.ListImages(context.Background())
	require.NoError(t, err)

	assert.Equal(t, time.Hour, store.lastTTL)
	assert.Empty(t, store.lastSign.DownloadName)
	assert.Contains(t, first[0].URL, "expires=3600")
	assert.NotEqual(t, first[0].URL, second[0].URL)
	assert.Equal(t, t0.Add(3600*time.Second), first[0].ExpiresAt)
}

func TestListImages_Malformed(t *testing.T) {
	tests := []struct {
		name string
		obj  filestore.ObjectInfo
	}{
		{name: "no modification time", obj: filestore.ObjectInfo{Key: "a.png", Size: 3}},
		{name: "unknown size", obj: filestore.ObjectInfo{Key: "a.png", Size: filestore.UnknownSize, LastModified: t0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{objects: []filestore.ObjectInfo{obj("ok.png", 1, t0), tt.obj}}

			entries, err := newClient(t, store).ListImages(context.Background())
			require.Error(t, err)
			assert.Nil(t, entries)
			assert.True(t, errs.IsRemote(err))
			assert.Contains(t, err.Error(), "invalid object data")
		})
	}
}

func TestListImages_ZeroSizeIsValid(t *testing.T) {
	store := &fakeStore{objects: []filestore.ObjectInfo{obj("empty.png", 0, t0)}}

	entries, err := newClient(t, store).ListImages(context.Background())
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestListImages_RemoteErrors(t *testing.T) {
	denied := errs.Wrap(errs.ErrKindPermissionDenied, "failed to list objects", errors.New("AccessDenied"))

	tests := []struct {
		name  string
		store *fakeStore
		kind  errs.ErrKind
	}{
		{name: "listing denied", store: &fakeStore{listErr: denied}, kind: errs.ErrKindPermissionDenied},
		{name: "listing transport", store: &fakeStore{listErr: errors.New("connection reset")}, kind: errs.ErrKindRemote},
		{
			name:  "signing",
			store: &fakeStore{objects: []filestore.ObjectInfo{obj("a.png", 1, t0)}, presignErr: errors.New("clock skew")},
			kind:  errs.ErrKindRemote,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newClient(t, tt.store).ListImages(context.Background())
			require.Error(t, err)
			assert.Equal(t, tt.kind, errs.KindOf(err))
			assert.True(t, strings.HasPrefix(err.Error(), "failed to fetch images: "), err.Error())
		})
	}
}

func TestListImages_Empty(t *testing.T) {
	entries, err := newClient(t, &fakeStore{}).ListImages(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUploadImage_GeneratedKey(t *testing.T) {
	store := &fakeStore{}
	c := newClient(t, store)

	key, err := c.UploadImage(context.Background(), Upload{
		Filename: "beach.png",
		Size:     5,
		Body:     strings.NewReader("image"),
	}, "")
	require.NoError(t, err)

	assert.Equal(t, fmt.Sprintf("uploads/%d-beach.png", t0.UnixMilli()), key)
	require.Len(t, store.puts, 1)
	put := store.puts[0]
	assert.Equal(t, "photos", put.bucket)
	assert.Equal(t, key, put.key)
	assert.Equal(t, []byte("image"), put.body)
	assert.Equal(t, int64(5), put.size)
	assert.Equal(t, "image/png", put.opts.ContentType)
}

func TestUploadImage_CallerKey(t *testing.T) {
	store := &fakeStore{}
	c := newClient(t, store)

	key, err := c.UploadImage(context.Background(), Upload{
		Filename:    "ignored.png",
		ContentType: "image/webp",
		Size:        -1,
		Body:        strings.NewReader("x"),
	}, "albums/cover.webp")
	require.NoError(t, err)

	assert.Equal(t, "albums/cover.webp", key)
	assert.Equal(t, "image/webp", store.puts[0].opts.ContentType)
}

func TestUploadImage_Errors(t *testing.T) {
	c := newClient(t, &fakeStore{putErr: errs.Wrap(errs.ErrKindPermissionDenied, "failed to upload object", errors.New("AccessDenied"))})

	_, err := c.UploadImage(context.Background(), Upload{Filename: "a.png", Body: strings.NewReader("x")}, "")
	assert.True(t, errs.IsPermissionDenied(err))
	assert.Contains(t, err.Error(), "failed to upload image")

	_, err = c.UploadImage(context.Background(), Upload{Body: strings.NewReader("x")}, "")
	assert.True(t, errs.IsValidation(err))

	_, err = c.UploadImage(context.Background(), Upload{Filename: "a.png"}, "")
	assert.True(t, errs.IsValidation(err))
}

func TestDownloadURL(t *testing.T) {
	store := &fakeStore{}
	c := newClient(t, store)

	url, err := c.DownloadURL(context.Background(), "trips/2024/a.png")
	require.NoError(t, err)
	assert.Contains(t, url, "trips/2024/a.png")
	assert.Equal(t, "a.png", store.lastSign.DownloadName)
	assert.Equal(t, time.Hour, store.lastTTL)
}

func TestReconfigure(t *testing.T) {
	first := &fakeStore{}
	second := &fakeStore{}
	stores := []*fakeStore{first, second}
	open := func(context.Context, *filestore.Config) (filestore.Store, error) {
		s := stores[0]
		stores = stores[1:]
		return s, nil
	}

	c := New(context.Background(), &creds, Options{Open: open})
	require.Equal(t, "photos", c.Bucket())

	next := creds
	next.BucketName = "archive"
	require.NoError(t, c.Reconfigure(context.Background(), next))

	assert.Equal(t, "archive", c.Bucket())
	assert.True(t, first.closed)
	assert.False(t, second.closed)

	err := c.Reconfigure(context.Background(), credentials.Credentials{})
	assert.True(t, errs.IsConfiguration(err))
	assert.False(t, c.IsConfigured())
	assert.True(t, second.closed)
}

func TestPing(t *testing.T) {
	c := newClient(t, &fakeStore{pingErr: errs.New(errs.ErrKindNotFound, "bucket missing")})
	err := c.Ping(context.Background())
	assert.True(t, errs.IsNotFound(err))

	assert.NoError(t, newClient(t, &fakeStore{}).Ping(context.Background()))
}

func TestClose(t *testing.T) {
	store := &fakeStore{}
	c := newClient(t, store)

	require.NoError(t, c.Close())
	assert.True(t, store.closed)
	assert.False(t, c.IsConfigured())
	assert.NoError(t, c.Close())
}
