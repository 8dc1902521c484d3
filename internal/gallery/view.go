// Package gallery holds the state behind the gallery and detail screens:
// the displayed images, load/refresh flags, pending notices and the
// periodic refresh loop.
package gallery

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/koustreak/bucketgallery/internal/imagestore"
	"github.com/koustreak/bucketgallery/internal/logger"
)

// DefaultRefreshInterval is how often a mounted view re-lists the bucket.
const DefaultRefreshInterval = 30 * time.Second

// Lister is the part of imagestore.Client the view needs.
type Lister interface {
	ListImages(ctx context.Context) ([]imagestore.ImageEntry, error)
}

// Options tunes a View.
type Options struct {
	RefreshInterval time.Duration
	// RequestTimeout bounds each listing issued by the background loop.
	RequestTimeout time.Duration
	Logger         *logger.Logger
}

// State is a point-in-time copy of the view for rendering.
type State struct {
	Entries    []imagestore.ImageEntry
	Loading    bool
	Refreshing bool
	// Err is the full-screen error left by a failed initial load.
	Err      string
	Selected *imagestore.ImageEntry
	// Loaded is true once any listing has been applied.
	Loaded    bool
	UpdatedAt time.Time
}

type fetchKind int

const (
	fetchLoad fetchKind = iota
	fetchRefresh
)

// View is the gallery screen's model. It is safe for concurrent use.
//
// Every listing takes a token from a monotonic counter; a response is applied
// only if its token is still the latest issued, so a slow request can never
// overwrite the result of a newer one.
type View struct {
	lister Lister
	opts   Options
	log    *logger.Logger

	mu       sync.Mutex
	issued   uint64
	state    State
	notices  []Notice
	cancel   context.CancelFunc
	loopDone chan struct{}
}

// New returns an unmounted view over lister.
func New(lister Lister, opts Options) *View {
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = DefaultRefreshInterval
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	return &View{
		lister: lister,
		opts:   opts,
		log:    opts.Logger.Component("gallery"),
	}
}

// Start mounts the view: it issues the initial load in the background and
// then refreshes every RefreshInterval until Stop or ctx is done.
// Calling Start on a mounted view does nothing.
func (v *View) Start(ctx context.Context) {
	v.mu.Lock()
	if v.cancel != nil {
		v.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	v.cancel = cancel
	v.loopDone = done
	v.mu.Unlock()

	go v.loop(ctx, done)
}

// Stop unmounts the view and waits for the refresh loop to exit.
// A listing already in flight may still apply its result.
func (v *View) Stop() {
	v.mu.Lock()
	cancel, done := v.cancel, v.loopDone
	v.cancel, v.loopDone = nil, nil
	v.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether the view is mounted.
func (v *View) Running() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cancel != nil
}

// Reset drops all displayed state, e.g. after the bucket changed.
// In-flight responses issued before Reset are discarded.
func (v *View) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.issued++
	v.state = State{}
	v.notices = nil
}

func (v *View) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	v.fetch(ctx, fetchLoad)

	ticker := time.NewTicker(v.opts.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			v.fetch(ctx, fetchRefresh)
		}
	}
}

func (v *View) fetch(ctx context.Context, kind fetchKind) {
	if v.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.opts.RequestTimeout)
		defer cancel()
	}
	if kind == fetchLoad {
		v.Load(ctx)
	} else {
		v.Refresh(ctx)
	}
}

// Load performs the initial (or retried) listing. Failure replaces the grid
// with a full-screen error that the user clears with a manual retry.
// It reports whether the response was applied.
func (v *View) Load(ctx context.Context) (bool, error) {
	return v.run(ctx, fetchLoad)
}

// Refresh re-lists the bucket. Failure keeps the displayed images and queues
// an error notice; success queues a summary notice.
// It reports whether the response was applied.
func (v *View) Refresh(ctx context.Context) (bool, error) {
	return v.run(ctx, fetchRefresh)
}

func (v *View) run(ctx context.Context, kind fetchKind) (bool, error) {
	v.mu.Lock()
	v.issued++
	token := v.issued
	if kind == fetchLoad {
		v.state.Loading = true
	} else {
		v.state.Refreshing = true
	}
	v.mu.Unlock()

	entries, err := v.lister.ListImages(ctx)

	v.mu.Lock()
	defer v.mu.Unlock()

	if token != v.issued {
		v.log.With().Int("token", int(token)).Logger().Debug("discarding stale listing")
		return false, err
	}

	v.state.Loading = false
	v.state.Refreshing = false

	if err != nil {
		if kind == fetchLoad {
			v.state.Err = err.Error()
			v.state.Entries = nil
		} else {
			v.notify(LevelError, "Error", err.Error())
		}
		v.log.WarnWith("listing failed", err, map[string]interface{}{"refresh": kind == fetchRefresh})
		return true, err
	}

	v.state.Entries = entries
	v.state.Err = ""
	v.state.Loaded = true
	v.state.UpdatedAt = time.Now()
	if v.state.Selected != nil && !containsKey(entries, v.state.Selected.Key) {
		v.state.Selected = nil
	}
	if kind == fetchRefresh {
		v.notify(LevelInfo, "Gallery refreshed", fmt.Sprintf("Found %d images", len(entries)))
	}
	return true, nil
}

// Select opens the detail view for a displayed key.
func (v *View) Select(key string) (Detail, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i := range v.state.Entries {
		if v.state.Entries[i].Key == key {
			e := v.state.Entries[i]
			v.state.Selected = &e
			return NewDetail(e), true
		}
	}
	return Detail{}, false
}

// CloseDetail returns to the grid. Nothing is fetched.
func (v *View) CloseDetail() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.Selected = nil
}

// Snapshot returns a copy of the current state.
func (v *View) Snapshot() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	s := v.state
	s.Entries = append([]imagestore.ImageEntry(nil), v.state.Entries...)
	if v.state.Selected != nil {
		sel := *v.state.Selected
		s.Selected = &sel
	}
	return s
}

// Notify queues a notice from outside the listing path, e.g. an upload result.
func (v *View) Notify(level Level, title, message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.notify(level, title, message)
}

// Notices returns and clears the queued notices.
func (v *View) Notices() []Notice {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := v.notices
	v.notices = nil
	return out
}

func (v *View) notify(level Level, title, message string) {
	v.notices = append(v.notices, Notice{Level: level, Title: title, Message: message, At: time.Now()})
	if len(v.notices) > maxNotices {
		v.notices = v.notices[len(v.notices)-maxNotices:]
	}
}

func containsKey(entries []imagestore.ImageEntry, key string) bool {
	for _, e := range entries {
		if e.Key == key {
			return true
		}
	}
	return false
}
