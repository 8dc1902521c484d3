// Package cli is the bucketgallery command line: it serves the web UI and
// exposes the configuration form, listing and upload from a terminal.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/koustreak/bucketgallery/internal/config"
	"github.com/koustreak/bucketgallery/internal/credentials"
	"github.com/koustreak/bucketgallery/internal/errs"
	"github.com/koustreak/bucketgallery/internal/gallery"
	"github.com/koustreak/bucketgallery/internal/imagestore"
	"github.com/koustreak/bucketgallery/internal/logger"
)

// Version is overridden at link time.
var Version = "dev"

type app struct {
	configPath      string
	credentialsPath string
	logLevel        string
	logFormat       string

	// open replaces the storage backend factory; nil means backends.Open.
	open imagestore.Opener

	cfg   *config.Config
	log   *logger.Logger
	creds credentials.Store
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&app{})
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "bucketgallery",
		Short:         "Browse the images in an object-storage bucket",
		Version:       Version,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "YAML configuration file")
	flags.StringVar(&a.credentialsPath, "credentials", "", "credential file (default: per-user config dir)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&a.logFormat, "log-format", "", "log format: console or json")

	root.AddCommand(
		newServeCmd(a),
		newConfigureCmd(a),
		newListCmd(a),
		newUploadCmd(a),
	)
	return root
}

// setup loads the config file and applies flag overrides.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}
	if a.credentialsPath != "" {
		cfg.Credentials.Path = a.credentialsPath
	}
	if cfg.Credentials.Path == "" {
		path, err := credentials.DefaultPath()
		if err != nil {
			return err
		}
		cfg.Credentials.Path = path
	}

	a.cfg = cfg
	a.log = logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cmd.ErrOrStderr(),
	})
	if a.creds == nil {
		a.creds = credentials.NewFileStore(cfg.Credentials.Path)
	}
	return nil
}

func (a *app) clientOptions() imagestore.Options {
	return imagestore.Options{
		Provider:  a.cfg.Storage.Provider,
		Endpoint:  a.cfg.Storage.Endpoint,
		UseSSL:    a.cfg.Storage.UseSSL,
		Open:      a.open,
		Logger:    a.log,
	}
}

func (a *app) galleryOptions() gallery.Options {
	return gallery.Options{
		RefreshInterval: a.cfg.Gallery.RefreshInterval,
		RequestTimeout:  a.cfg.Gallery.RequestTimeout,
		Logger:          a.log,
	}
}

// client builds a configured client from the stored credentials.
func (a *app) client(ctx context.Context) (*imagestore.Client, error) {
	creds, err := a.creds.Load(ctx)
	if err != nil {
		return nil, err
	}
	c := imagestore.New(ctx, creds, a.clientOptions())
	if !c.IsConfigured() {
		return nil, errs.New(errs.ErrKindConfiguration, "storage not configured: run `bucketgallery configure` first")
	}
	return c, nil
}
