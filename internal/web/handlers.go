package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/koustreak/bucketgallery/internal/configform"
	"github.com/koustreak/bucketgallery/internal/errs"
	"github.com/koustreak/bucketgallery/internal/gallery"
	"github.com/koustreak/bucketgallery/internal/imagestore"
	"github.com/koustreak/bucketgallery/internal/logger"
	"github.com/koustreak/bucketgallery/internal/session"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.sess.Mode() == session.ModeGallery {
		http.Redirect(w, r, "/gallery", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/setup", http.StatusSeeOther)
}

type setupPage struct {
	Fields []setupField
	Error  string
	// Missing lists the labels of empty fields after a rejected submit.
	Missing []string
}

type setupField struct {
	configform.Field
	Value string
}

func newSetupPage(f configform.Form) setupPage {
	p := setupPage{}
	for _, field := range configform.Fields {
		p.Fields = append(p.Fields, setupField{Field: field, Value: f.Get(field.Name)})
	}
	return p
}

func (s *Server) handleSetupForm(w http.ResponseWriter, r *http.Request) {
	f, err := s.sess.Form(r.Context())
	page := newSetupPage(f)
	if err != nil {
		logger.FromContext(r.Context()).WarnWith("stored credentials unreadable", err, nil)
		page.Error = err.Error()
	}
	s.render(w, r, http.StatusOK, "setup", page)
}

func (s *Server) handleSetupSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form", http.StatusBadRequest)
		return
	}

	var f configform.Form
	for _, field := range configform.Fields {
		f.Set(field.Name, r.PostFormValue(field.Name))
	}

	err := s.sess.SubmitConfig(r.Context(), f)
	if err == nil {
		http.Redirect(w, r, "/gallery", http.StatusSeeOther)
		return
	}

	// Secrets are never echoed back into a rejected form.
	f.SecretAccessKey = ""
	page := newSetupPage(f)
	page.Error = err.Error()
	var verr *configform.ValidationError
	if errors.As(err, &verr) {
		page.Missing = verr.Missing
	}
	s.render(w, r, statusFor(err), "setup", page)
}

type galleryPage struct {
	Bucket  string
	State   gallery.State
	Notices []gallery.Notice
	Detail  *gallery.Detail
}

// Loading reports that nothing has been shown yet and no error is pending.
func (p galleryPage) Loading() bool {
	return !p.State.Loaded && p.State.Err == ""
}

func (s *Server) galleryPage() galleryPage {
	view := s.sess.Gallery()
	p := galleryPage{
		Bucket:  s.sess.Client().Bucket(),
		State:   view.Snapshot(),
		Notices: view.Notices(),
	}
	if p.State.Selected != nil {
		d := gallery.NewDetail(*p.State.Selected)
		p.Detail = &d
	}
	return p
}

func (s *Server) handleGallery(w http.ResponseWriter, r *http.Request) {
	s.sess.Mount()
	s.render(w, r, http.StatusOK, "gallery", s.galleryPage())
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()
	s.sess.Gallery().Refresh(ctx)
	http.Redirect(w, r, "/gallery", http.StatusSeeOther)
}

func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()
	s.sess.Gallery().Load(ctx)
	http.Redirect(w, r, "/gallery", http.StatusSeeOther)
}

func (s *Server) handleDetail(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.sess.Gallery().Select(keyParam(r)); !ok {
		http.Error(w, "image not found", http.StatusNotFound)
		return
	}
	s.render(w, r, http.StatusOK, "detail", s.galleryPage())
}

func (s *Server) handleCloseDetail(w http.ResponseWriter, r *http.Request) {
	s.sess.Gallery().CloseDetail()
	http.Redirect(w, r, "/gallery", http.StatusSeeOther)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()

	url, err := s.sess.Client().DownloadURL(ctx, keyParam(r))
	if err != nil {
		logger.FromContext(ctx).WarnWith("download failed", err, nil)
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "upload too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "malformed upload", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	ctx, cancel := s.requestContext(r)
	defer cancel()

	view := s.sess.Gallery()
	key, err := s.sess.Client().UploadImage(ctx, imagestore.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	}, r.FormValue("key"))
	if err != nil {
		logger.FromContext(ctx).WarnWith("upload failed", err, nil)
		view.Notify(gallery.LevelError, "Upload failed", err.Error())
		http.Redirect(w, r, "/gallery", http.StatusSeeOther)
		return
	}

	view.Notify(gallery.LevelInfo, "Upload complete", key)
	view.Refresh(ctx)
	http.Redirect(w, r, "/gallery", http.StatusSeeOther)
}

type imagesResponse struct {
	Bucket    string                  `json:"bucket"`
	Images    []imagestore.ImageEntry `json:"images"`
	Error     string                  `json:"error,omitempty"`
	UpdatedAt *time.Time              `json:"updatedAt,omitempty"`
}

// handleAPIImages returns the displayed entries, loading them first if the
// view has not shown anything yet.
func (s *Server) handleAPIImages(w http.ResponseWriter, r *http.Request) {
	if s.sess.Mode() != session.ModeGallery {
		writeJSONError(w, errs.New(errs.ErrKindConfiguration, "storage not configured: please provide your bucket credentials"))
		return
	}

	view := s.sess.Gallery()
	if !view.Snapshot().Loaded {
		ctx, cancel := s.requestContext(r)
		defer cancel()
		view.Load(ctx)
	}
	s.sess.Mount()

	state := view.Snapshot()
	resp := imagesResponse{
		Bucket: s.sess.Client().Bucket(),
		Images: state.Entries,
		Error:  state.Err,
	}
	if resp.Images == nil {
		resp.Images = []imagestore.ImageEntry{}
	}
	if !state.UpdatedAt.IsZero() {
		resp.UpdatedAt = &state.UpdatedAt
	}
	status := http.StatusOK
	if state.Err != "" {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{
		"status": "ok",
		"mode":   s.sess.Mode().String(),
	}
	if r.URL.Query().Get("ping") == "" || s.sess.Mode() != session.ModeGallery {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()
	if err := s.sess.Client().Ping(ctx); err != nil {
		resp["status"] = "unreachable"
		resp["error"] = err.Error()
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), s.opts.RequestTimeout)
}

// statusFor maps an error kind onto an HTTP status.
func statusFor(err error) int {
	switch errs.KindOf(err) {
	case errs.ErrKindValidation, errs.ErrKindConfiguration:
		return http.StatusUnprocessableEntity
	case errs.ErrKindNotFound:
		return http.StatusNotFound
	case errs.ErrKindPermissionDenied:
		return http.StatusForbidden
	case errs.ErrKindTimeout:
		return http.StatusGatewayTimeout
	case errs.ErrKindRemote:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if errs.IsConfiguration(err) {
		status = http.StatusConflict
	}
	writeJSON(w, status, map[string]string{
		"error": err.Error(),
		"kind":  errs.KindOf(err).String(),
	})
}
