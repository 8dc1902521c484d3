package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/bucketgallery/internal/configform"
	"github.com/koustreak/bucketgallery/internal/credentials"
	"github.com/koustreak/bucketgallery/internal/errs"
	"github.com/koustreak/bucketgallery/internal/filestore"
	"github.com/koustreak/bucketgallery/internal/filestore/memstore"
	"github.com/koustreak/bucketgallery/internal/imagestore"
)

var complete = credentials.Credentials{
	AccessKeyID:     "AKIAEXAMPLE",
	SecretAccessKey: "secret",
	Region:          "us-east-1",
	BucketName:      "photos",
}

type opened struct {
	configs []filestore.Config
}

func newOptions(store *memstore.Store, seen *opened) Options {
	return Options{
		Client: imagestore.Options{
			Open: func(_ context.Context, cfg *filestore.Config) (filestore.Store, error) {
				seen.configs = append(seen.configs, *cfg)
				return store, nil
			},
		},
	}
}

func openSession(t *testing.T, creds *credentials.Credentials) (*Session, *credentials.MemoryStore, *memstore.Store, *opened) {
	t.Helper()
	objects := memstore.New("photos", "holiday")
	objects.Seed("photos", filestore.ObjectInfo{Key: "a.png", Size: 10, LastModified: time.Now()})

	seen := &opened{}
	store := credentials.NewMemoryStore(creds)
	s, err := Open(context.Background(), store, newOptions(objects, seen))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, store, objects, seen
}

func TestOpen_Modes(t *testing.T) {
	s, _, _, seen := openSession(t, nil)
	assert.Equal(t, ModeConfigure, s.Mode())
	assert.Empty(t, seen.configs)

	s2, _, _, seen2 := openSession(t, &complete)
	assert.Equal(t, ModeGallery, s2.Mode())
	require.Len(t, seen2.configs, 1)
	assert.Equal(t, "photos", seen2.configs[0].DefaultBucket)
}

func TestOpen_IncompleteRecord(t *testing.T) {
	partial := complete
	partial.BucketName = ""
	s, _, _, _ := openSession(t, &partial)
	assert.Equal(t, ModeConfigure, s.Mode())
}

type brokenStore struct{}

func (brokenStore) Save(context.Context, credentials.Credentials) error { return nil }
func (brokenStore) Load(context.Context) (*credentials.Credentials, error) {
	return nil, errs.New(errs.ErrKindStorage, "failed to read credentials")
}

func TestOpen_StorageFailure(t *testing.T) {
	_, err := Open(context.Background(), brokenStore{}, Options{})
	require.Error(t, err)
	assert.True(t, errs.IsStorage(err))
}

func TestSession_Form(t *testing.T) {
	s, _, _, _ := openSession(t, nil)
	f, err := s.Form(context.Background())
	require.NoError(t, err)
	assert.Equal(t, configform.DefaultRegion, f.Region)
	assert.Empty(t, f.BucketName)

	s2, _, _, _ := openSession(t, &complete)
	f2, err := s2.Form(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "photos", f2.BucketName)
}

func TestSubmitConfig_SwitchesToGallery(t *testing.T) {
	s, store, _, seen := openSession(t, nil)
	ctx := context.Background()

	err := s.SubmitConfig(ctx, configform.FromCredentials(&complete))
	require.NoError(t, err)

	assert.Equal(t, ModeGallery, s.Mode())
	assert.Equal(t, "photos", s.Client().Bucket())
	require.Len(t, seen.configs, 1)

	saved, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, complete, *saved)
}

func TestSubmitConfig_RejectedFormChangesNothing(t *testing.T) {
	s, store, _, _ := openSession(t, &complete)
	ctx := context.Background()

	f := configform.FromCredentials(&complete)
	f.BucketName = ""
	err := s.SubmitConfig(ctx, f)
	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))

	assert.Equal(t, ModeGallery, s.Mode())
	assert.Equal(t, "photos", s.Client().Bucket())
	saved, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "photos", saved.BucketName)
}

func TestSubmitConfig_RebindsAndReloads(t *testing.T) {
	s, _, _, _ := openSession(t, &complete)
	ctx := context.Background()

	s.Mount()
	require.Eventually(t, func() bool { return s.Gallery().Snapshot().Loaded }, time.Second, 5*time.Millisecond)
	assert.Len(t, s.Gallery().Snapshot().Entries, 1)

	next := complete
	next.BucketName = "holiday"
	require.NoError(t, s.SubmitConfig(ctx, configform.FromCredentials(&next)))

	assert.Equal(t, "holiday", s.Client().Bucket())
	assert.True(t, s.Gallery().Running())
	require.Eventually(t, func() bool { return s.Gallery().Snapshot().Loaded }, time.Second, 5*time.Millisecond)
	assert.Empty(t, s.Gallery().Snapshot().Entries)
}

func TestMount_UnconfiguredDoesNothing(t *testing.T) {
	s, _, _, _ := openSession(t, nil)
	s.Mount()
	assert.False(t, s.Gallery().Running())
}

func TestClose(t *testing.T) {
	s, _, _, _ := openSession(t, &complete)
	s.Mount()
	require.NoError(t, s.Close())
	assert.False(t, s.Gallery().Running())
	assert.False(t, s.Client().IsConfigured())
}
