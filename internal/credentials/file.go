package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"

	"github.com/koustreak/bucketgallery/internal/errs"
)

// FileName is the credential document's name inside the config directory.
const FileName = "credentials.json"

// FileStore keeps the record as a JSON document on local disk.
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by the file at path.
// The file and its directory are created on first Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultPath returns <user config dir>/bucketgallery/credentials.json.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errs.Wrap(errs.ErrKindStorage, "cannot locate user config directory", err)
	}
	return filepath.Join(dir, "bucketgallery", FileName), nil
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Save writes a temp file next to the target, restricts it to the owner and
// renames it into place, so readers see either the old or the new record.
func (s *FileStore) Save(_ context.Context, creds Credentials) error {
	data, err := json.Marshal(creds)
	if err != nil {
		return errs.Wrap(errs.ErrKindStorage, "failed to encode credentials", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return errs.Wrap(errs.ErrKindStorage, "failed to create credentials directory", err)
	}

	tmp, err := os.CreateTemp(dir, FileName+".*.tmp")
	if err != nil {
		return errs.Wrap(errs.ErrKindStorage, "failed to create temp file", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errs.Wrap(errs.ErrKindStorage, "failed to write credentials", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errs.Wrap(errs.ErrKindStorage, "failed to flush credentials", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errs.Wrap(errs.ErrKindStorage, "failed to close credentials file", err)
	}

	if runtime.GOOS != "windows" {
		if err := os.Chmod(tmpPath, 0o600); err != nil {
			os.Remove(tmpPath)
			return errs.Wrap(errs.ErrKindStorage, "failed to set credentials permissions", err)
		}
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return errs.Wrap(errs.ErrKindStorage, "failed to save credentials", err)
	}
	return nil
}

// Load reads the record. A missing file is not an error.
func (s *FileStore) Load(_ context.Context) (*Credentials, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindStorage, "failed to read credentials", err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, errs.Wrap(errs.ErrKindStorage, "credentials file is corrupt", err)
	}
	return &creds, nil
}
