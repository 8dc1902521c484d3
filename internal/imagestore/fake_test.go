package imagestore

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/koustreak/bucketgallery/internal/filestore"
)

type putCall struct {
	bucket, key string
	body        []byte
	size        int64
	opts        filestore.PutOptions
}

// fakeStore is an in-memory filestore.Store that honours ListOptions.Limit.
type fakeStore struct {
	mu         sync.Mutex
	objects    []filestore.ObjectInfo
	listErr    error
	presignErr error
	putErr     error
	pingErr    error

	listOpts []filestore.ListOptions
	signs    int
	lastTTL  time.Duration
	lastSign filestore.PresignOptions
	puts     []putCall
	closed   bool
}

func (f *fakeStore) Ping(context.Context, string) error { return f.pingErr }

func (f *fakeStore) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeStore) ListObjects(_ context.Context, _ string, opts filestore.ListOptions) ([]filestore.ObjectInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listOpts = append(f.listOpts, opts)
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := f.objects
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return append([]filestore.ObjectInfo(nil), out...), nil
}

func (f *fakeStore) PresignGetURL(_ context.Context, bucket, key string, ttl time.Duration, opts filestore.PresignOptions) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.presignErr != nil {
		return "", f.presignErr
	}
	f.signs++
	f.lastTTL = ttl
	f.lastSign = opts
	return fmt.Sprintf("https://%s.example/%s?sig=%d&expires=%d", bucket, key, f.signs, int(ttl.Seconds())), nil
}

func (f *fakeStore) PutObject(_ context.Context, bucket, key string, body io.Reader, size int64, opts filestore.PutOptions) (*filestore.ObjectInfo, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return nil, f.putErr
	}
	f.puts = append(f.puts, putCall{bucket: bucket, key: key, body: data, size: size, opts: opts})
	return &filestore.ObjectInfo{Key: key, Size: int64(len(data))}, nil
}

// opener returns an Opener that hands out store and records the config.
func opener(store filestore.Store, seen *[]filestore.Config) Opener {
	return func(_ context.Context, cfg *filestore.Config) (filestore.Store, error) {
		if seen != nil {
			*seen = append(*seen, *cfg)
		}
		return store, nil
	}
}
