// Package session ties the credential store, the object-store client and
// the gallery view together and decides which screen the user is on.
package session

import (
	"context"
	"sync"

	"github.com/koustreak/bucketgallery/internal/configform"
	"github.com/koustreak/bucketgallery/internal/credentials"
	"github.com/koustreak/bucketgallery/internal/gallery"
	"github.com/koustreak/bucketgallery/internal/imagestore"
	"github.com/koustreak/bucketgallery/internal/logger"
)

// Mode is the screen the session is gated on.
type Mode int

const (
	ModeConfigure Mode = iota
	ModeGallery
)

func (m Mode) String() string {
	if m == ModeGallery {
		return "gallery"
	}
	return "configure"
}

// Options configures the parts a Session owns.
type Options struct {
	Client  imagestore.Options
	Gallery gallery.Options
	Logger  *logger.Logger
}

// Session owns one client and one gallery view for the life of the process.
type Session struct {
	store  credentials.Store
	client *imagestore.Client
	view   *gallery.View
	log    *logger.Logger

	// ctx bounds the gallery refresh loop; cancelled by Close.
	ctx    context.Context
	cancel context.CancelFunc

	submitMu sync.Mutex
}

// Open loads the stored credentials and builds the client from them.
// Only a failing storage medium is an error; no credentials simply means
// the session starts in ModeConfigure.
func Open(ctx context.Context, store credentials.Store, opts Options) (*Session, error) {
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.Client.Logger == nil {
		opts.Client.Logger = opts.Logger
	}
	if opts.Gallery.Logger == nil {
		opts.Gallery.Logger = opts.Logger
	}

	creds, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}

	client := imagestore.New(ctx, creds, opts.Client)
	lifetime, cancel := context.WithCancel(context.Background())

	s := &Session{
		store:  store,
		client: client,
		view:   gallery.New(client, opts.Gallery),
		log:    opts.Logger.Component("session"),
		ctx:    lifetime,
		cancel: cancel,
	}
	s.log.With().Str("mode", s.Mode().String()).Logger().Info("session opened")
	return s, nil
}

// Mode reports ModeGallery once the client is configured.
func (s *Session) Mode() Mode {
	if s.client.IsConfigured() {
		return ModeGallery
	}
	return ModeConfigure
}

// Client returns the session's object-store client.
func (s *Session) Client() *imagestore.Client {
	return s.client
}

// Gallery returns the session's gallery view.
func (s *Session) Gallery() *gallery.View {
	return s.view
}

// Mount starts the gallery refresh loop if the session is in gallery mode.
// It is safe to call on every gallery page view.
func (s *Session) Mount() {
	if s.Mode() != ModeGallery {
		return
	}
	s.view.Start(s.ctx)
}

// Form returns the configuration form pre-filled from the stored record.
func (s *Session) Form(ctx context.Context) (configform.Form, error) {
	creds, err := s.store.Load(ctx)
	if err != nil {
		return configform.FromCredentials(nil), err
	}
	return configform.FromCredentials(creds), nil
}

// SubmitConfig saves f, rebinds the client to the new credentials and
// remounts the gallery. A rejected form changes nothing.
func (s *Session) SubmitConfig(ctx context.Context, f configform.Form) error {
	s.submitMu.Lock()
	defer s.submitMu.Unlock()

	creds, err := configform.Submit(ctx, s.store, f)
	if err != nil {
		return err
	}

	wasRunning := s.view.Running()
	s.view.Stop()
	s.view.Reset()

	if err := s.client.Reconfigure(ctx, creds); err != nil {
		s.log.WarnWith("saved credentials were not usable", err, nil)
		return err
	}

	s.log.With().Str("bucket", creds.BucketName).Logger().Info("configuration saved")
	if wasRunning {
		s.view.Start(s.ctx)
	}
	return nil
}

// Close stops the refresh loop and releases the client.
func (s *Session) Close() error {
	s.view.Stop()
	s.cancel()
	return s.client.Close()
}
