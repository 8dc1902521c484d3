// Package web serves the gallery's screens over HTTP: the configuration
// form, the image grid, the detail view and a small JSON API.
package web

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/koustreak/bucketgallery/internal/gallery"
	"github.com/koustreak/bucketgallery/internal/logger"
	"github.com/koustreak/bucketgallery/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	DefaultMaxUploadBytes = 32 << 20
	DefaultRequestTimeout = 30 * time.Second

	multipartMemory = 8 << 20
)

// Options tunes a Server.
type Options struct {
	// MaxUploadBytes caps the body of an upload request.
	MaxUploadBytes int64
	// RequestTimeout bounds listings and uploads issued by a request.
	RequestTimeout time.Duration
	Logger         *logger.Logger
}

// Server renders a session.
type Server struct {
	sess   *session.Session
	opts   Options
	log    *logger.Logger
	pages  *template.Template
	router chi.Router
}

// New builds the router for sess.
func New(sess *session.Session, opts Options) (*Server, error) {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}

	pages, err := template.New("").Funcs(template.FuncMap{
		"size":         gallery.FormatSize,
		"ago":          humanize.Time,
		"imagePath":    func(key string) string { return "/gallery/images/" + escapeKey(key) },
		"download":     func(key string) string { return "/gallery/download/" + escapeKey(key) },
		"dict":         dict,
		"refreshAfter": refreshAfter,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	s := &Server{
		sess:  sess,
		opts:  opts,
		log:   opts.Logger.Component("web"),
		pages: pages,
	}
	s.router = s.routes()
	return s, nil
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.log))
	r.Use(recoverer(s.log))

	r.Get("/", s.handleIndex)
	r.Get("/healthz", s.handleHealth)

	r.Get("/setup", s.handleSetupForm)
	r.Post("/setup", s.handleSetupSubmit)

	r.Route("/gallery", func(r chi.Router) {
		r.Use(s.requireConfigured)
		r.Get("/", s.handleGallery)
		r.Post("/refresh", s.handleRefresh)
		r.Post("/retry", s.handleRetry)
		r.Get("/images/*", s.handleDetail)
		r.Get("/close", s.handleCloseDetail)
		r.Get("/download/*", s.handleDownload)
		r.Post("/upload", s.handleUpload)
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/images", s.handleAPIImages)
	})
	return r
}

// requireConfigured sends every gallery route to the form until the
// session has usable credentials.
func (s *Server) requireConfigured(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.sess.Mode() != session.ModeGallery {
			http.Redirect(w, r, "/setup", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	var buf bytes.Buffer
	if err := s.pages.ExecuteTemplate(&buf, page, data); err != nil {
		logger.FromContext(r.Context()).ErrorWith("template failed", err, map[string]interface{}{"page": page})
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// dict builds a map from alternating keys and values for passing several
// values into a nested template.
func dict(kv ...any) map[string]any {
	m := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok {
			m[k] = kv[i+1]
		}
	}
	return m
}

// refreshAfter is the meta-refresh delay in seconds; zero disables it.
func refreshAfter(loading bool) int {
	if loading {
		return 1
	}
	return 0
}

// escapeKey escapes each path segment of an object key.
func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

// keyParam returns the object key captured by a trailing wildcard.
func keyParam(r *http.Request) string {
	key := chi.URLParam(r, "*")
	if r.URL.RawPath != "" {
		if k, err := url.PathUnescape(key); err == nil {
			return k
		}
	}
	return key
}
