// Package config loads the application settings from a YAML file.
//
// Bucket credentials are deliberately absent: they are entered through the
// configuration form and live in the credential store.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/koustreak/bucketgallery/internal/errs"
	"github.com/koustreak/bucketgallery/internal/filestore"
)

// Config is the root of the YAML document.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Storage     StorageConfig     `yaml:"storage"`
	Credentials CredentialsConfig `yaml:"credentials"`
	Gallery     GalleryConfig     `yaml:"gallery"`
	Log         LogConfig         `yaml:"log"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes"`
}

// StorageConfig picks the object-store backend. Endpoint is only needed for
// MinIO and other S3-compatible services or the Azure emulator.
type StorageConfig struct {
	Provider filestore.Provider `yaml:"provider"`
	Endpoint string             `yaml:"endpoint"`
	UseSSL   bool               `yaml:"use_ssl"`
}

type CredentialsConfig struct {
	// Path of the credential document. Empty means the per-user default.
	Path string `yaml:"path"`
}

type GalleryConfig struct {
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns the settings used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            "127.0.0.1:8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    2 * time.Minute,
			ShutdownTimeout: 10 * time.Second,
			MaxUploadBytes:  32 << 20,
		},
		Storage: StorageConfig{
			Provider: filestore.ProviderS3,
			UseSSL:   true,
		},
		Gallery: GalleryConfig{
			RefreshInterval: 30 * time.Second,
			RequestTimeout:  30 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads path over DefaultConfig. An empty path or a missing file yields
// the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindStorage, "failed to read config", err)
	}

	// Unknown keys are errors so that a retired setting is not silently ignored.
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, errs.Wrap(errs.ErrKindConfiguration, fmt.Sprintf("invalid config %s", path), err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the rest of the program cannot run with.
func (c *Config) Validate() error {
	switch c.Storage.Provider {
	case filestore.ProviderS3, filestore.ProviderAzure:
	case filestore.ProviderMinIO:
		if c.Storage.Endpoint == "" {
			return errs.New(errs.ErrKindConfiguration, "storage.endpoint is required for minio")
		}
	default:
		return errs.New(errs.ErrKindConfiguration, fmt.Sprintf("unknown storage.provider %q", c.Storage.Provider))
	}
	if c.Gallery.RefreshInterval <= 0 {
		return errs.New(errs.ErrKindConfiguration, "gallery.refresh_interval must be positive")
	}
	if c.Gallery.RequestTimeout <= 0 {
		return errs.New(errs.ErrKindConfiguration, "gallery.request_timeout must be positive")
	}
	return nil
}
