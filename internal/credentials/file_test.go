package credentials

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/bucketgallery/internal/errs"
)

var sample = Credentials{
	AccessKeyID:     "AKIAEXAMPLE",
	SecretAccessKey: "wJalrXUtnFEMI",
	Region:          "eu-west-1",
	BucketName:      "holiday-photos",
}

func TestFileStore_LoadMissing(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "nested", FileName))

	creds, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, creds)
}

func TestFileStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", FileName)
	store := NewFileStore(path)

	require.NoError(t, store.Save(ctx, sample))

	creds, err := store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, creds)
	assert.Equal(t, sample, *creds)

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}
}

func TestFileStore_JSONShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, NewFileStore(path).Save(context.Background(), sample))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]string
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, map[string]string{
		"accessKeyId":     "AKIAEXAMPLE",
		"secretAccessKey": "wJalrXUtnFEMI",
		"region":          "eu-west-1",
		"bucketName":      "holiday-photos",
	}, doc)
}

func TestFileStore_Overwrite(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := NewFileStore(filepath.Join(dir, FileName))

	require.NoError(t, store.Save(ctx, sample))
	next := sample
	next.BucketName = "work-photos"
	require.NoError(t, store.Save(ctx, next))

	creds, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "work-photos", creds.BucketName)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestFileStore_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewFileStore(path).Load(context.Background())
	require.Error(t, err)
	assert.True(t, errs.IsStorage(err))
}

func TestFileStore_SaveFailureKeepsPrevious(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	store := NewFileStore(path)
	require.NoError(t, store.Save(ctx, sample))

	// The existing credentials file sits where this store needs a directory.
	blocked := NewFileStore(filepath.Join(path, "child.json"))
	err := blocked.Save(ctx, Credentials{BucketName: "other"})
	require.Error(t, err)
	assert.True(t, errs.IsStorage(err))

	creds, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sample, *creds)
}

func TestCredentials_Missing(t *testing.T) {
	assert.True(t, sample.Complete())
	assert.Empty(t, sample.Missing())

	partial := Credentials{AccessKeyID: "a", Region: " "}
	assert.False(t, partial.Complete())
	assert.Equal(t, []string{"secretAccessKey", "region", "bucketName"}, partial.Missing())

	var none *Credentials
	assert.False(t, none.Complete())
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(nil)

	creds, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, creds)

	require.NoError(t, store.Save(ctx, sample))
	creds, err = store.Load(ctx)
	require.NoError(t, err)
	creds.BucketName = "mutated"

	again, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sample.BucketName, again.BucketName)
}
