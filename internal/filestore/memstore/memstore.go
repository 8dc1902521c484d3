// Package memstore is an in-process filestore.Store. Listings come back in
// lexicographic key order like S3; presigned URLs are opaque but unique.
package memstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/koustreak/bucketgallery/internal/errs"
	"github.com/koustreak/bucketgallery/internal/filestore"
)

type object struct {
	info filestore.ObjectInfo
	data []byte
}

// Store keeps objects per bucket in memory.
type Store struct {
	mu      sync.Mutex
	buckets map[string]map[string]object
	signed  int
	now     func() time.Time
}

// New returns a store containing the given buckets, all empty.
func New(buckets ...string) *Store {
	s := &Store{buckets: map[string]map[string]object{}, now: time.Now}
	for _, b := range buckets {
		s.buckets[b] = map[string]object{}
	}
	return s
}

// Seed inserts info (and no content) as if it had been uploaded at
// info.LastModified.
func (s *Store) Seed(bucket string, infos ...filestore.ObjectInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.bucket(bucket)
	for _, info := range infos {
		b[info.Key] = object{info: info}
	}
}

// Content returns the bytes stored at key.
func (s *Store) Content(bucket, key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.buckets[bucket][key]
	return obj.data, ok
}

func (s *Store) bucket(name string) map[string]object {
	b, ok := s.buckets[name]
	if !ok {
		b = map[string]object{}
		s.buckets[name] = b
	}
	return b
}

func (s *Store) Ping(_ context.Context, bucket string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.buckets[bucket]; !ok {
		return errs.New(errs.ErrKindNotFound, fmt.Sprintf("bucket %q does not exist", bucket))
	}
	return nil
}

func (s *Store) Close() error { return nil }

func (s *Store) ListObjects(ctx context.Context, bucket string, opts filestore.ListOptions) ([]filestore.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(errs.ErrKindTimeout, "failed to list objects", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[bucket]
	if !ok {
		return nil, errs.New(errs.ErrKindNotFound, "failed to list objects: no such bucket")
	}

	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []filestore.ObjectInfo
	for _, k := range keys {
		out = append(out, b[k].info)
		if opts.Limit > 0 && len(out) >= opts.Limit {
			break
		}
	}
	return out, nil
}

func (s *Store) PresignGetURL(_ context.Context, bucket, key string, ttl time.Duration, opts filestore.PresignOptions) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signed++

	q := url.Values{}
	q.Set("expires", fmt.Sprintf("%d", int(ttl.Seconds())))
	q.Set("n", fmt.Sprintf("%d", s.signed))
	if opts.DownloadName != "" {
		q.Set("download", opts.DownloadName)
	}
	u := url.URL{Scheme: "memory", Host: bucket, Path: "/" + key, RawQuery: q.Encode()}
	return u.String(), nil
}

func (s *Store) PutObject(ctx context.Context, bucket, key string, body io.Reader, _ int64, opts filestore.PutOptions) (*filestore.ObjectInfo, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return nil, errs.Wrap(errs.ErrKindRemote, "failed to upload object", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	info := filestore.ObjectInfo{
		Key:          key,
		Size:         int64(buf.Len()),
		ContentType:  opts.ContentType,
		LastModified: s.now(),
	}
	s.bucket(bucket)[key] = object{info: info, data: buf.Bytes()}
	return &info, nil
}
