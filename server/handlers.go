package server

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/jmcleod/cvdrop/identity"
	"github.com/jmcleod/cvdrop/storage"
)

const (
	uploadFieldName = "cv"
	noFileMessage   = "no file uploaded"

	oauthStateCookieName = "cvdrop_oauth_state"
	oauthStateTTL        = 10 * time.Minute
)

// Landing handles GET /.
func (s *Server) Landing(w http.ResponseWriter, r *http.Request) {
	var profile *identity.Profile
	if _, session, ok := s.sessionFromRequest(r); ok {
		profile = session.Profile
	}
	s.renderPage(w, http.StatusOK, "index.html", struct {
		Profile *identity.Profile
	}{Profile: profile})
}

// Upload handles POST /upload: one multipart file field, streamed straight
// into the store.
func (s *Server) Upload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile(uploadFieldName)
	if err != nil {
		s.audit.logFailure(AuditUploadRejected, r, "missing file field")
		plainText(w, http.StatusBadRequest, noFileMessage)
		return
	}
	defer file.Close()

	stored, err := s.store.Save(r.Context(), header.Filename, file)
	if err != nil {
		s.audit.logFailure(AuditUploadRejected, r, "storage failure",
			slog.String("original_name", header.Filename))
		s.renderError(w, http.StatusInternalServerError, "The file could not be saved. Please try again.")
		return
	}

	s.audit.log(AuditUploadAccepted, r,
		slog.String("stored_name", stored.StoredName),
		slog.String("original_name", stored.OriginalName),
		slog.Int64("size", stored.Size))
	s.renderPage(w, http.StatusOK, "upload_success.html", struct {
		OriginalName string
		StoragePath  string
	}{
		OriginalName: stored.OriginalName,
		StoragePath:  "/uploads/" + stored.StoredName,
	})
}

// Listing handles GET /listing. The RequireAdmin middleware has already run;
// no enumeration happens on the denial path.
func (s *Server) Listing(w http.ResponseWriter, r *http.Request) {
	files, err := s.store.List(r.Context())
	if err != nil {
		s.renderError(w, http.StatusInternalServerError, "The upload folder could not be read.")
		return
	}
	s.audit.log(AuditListingServed, r, slog.Int("count", len(files)))
	s.renderPage(w, http.StatusOK, "listing.html", struct {
		Files []storage.UploadedFile
	}{Files: files})
}

// ServeUpload handles GET /uploads/{name}: raw bytes by stored name.
func (s *Server) ServeUpload(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !storage.ValidStoredName(name) {
		http.NotFound(w, r)
		return
	}
	rc, meta, err := s.store.Open(r.Context(), name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		s.renderError(w, http.StatusInternalServerError, "The file could not be read.")
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(path.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition",
		mime.FormatMediaType("inline", map[string]string{"filename": meta.OriginalName}))
	if meta.Size > 0 {
		w.Header().Set("Content-Length", fmt.Sprintf("%d", meta.Size))
	}
	io.Copy(w, rc)
}

// AuthLogin handles GET /auth/login: redirect the browser to the provider.
func (s *Server) AuthLogin(w http.ResponseWriter, r *http.Request) {
	if s.identity == nil {
		s.renderError(w, http.StatusServiceUnavailable, "Sign-in is not configured on this server.")
		return
	}
	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookieName,
		Value:    state,
		Path:     "/auth",
		HttpOnly: true,
		Secure:   requestIsSecure(r),
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(oauthStateTTL),
	})
	http.Redirect(w, r, s.identity.BeginAuth(state), http.StatusFound)
}

// AuthCallback handles GET /auth/callback. Failures redirect home with no
// detail leaked; there is no retry beyond the user clicking login again.
func (s *Server) AuthCallback(w http.ResponseWriter, r *http.Request) {
	if s.identity == nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	stateCookie, err := r.Cookie(oauthStateCookieName)
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		s.audit.logFailure(AuditOAuthLoginFailure, r, "state mismatch")
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	code := r.URL.Query().Get("code")
	if code == "" {
		s.audit.logFailure(AuditOAuthLoginFailure, r, "provider denied")
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	profile, err := s.identity.CompleteAuth(r.Context(), code)
	if err != nil {
		s.audit.logFailure(AuditOAuthLoginFailure, r, "exchange failed")
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	token, session := s.ensureSession(w, r)
	session.Profile = &profile
	session.LastAccessedAt = time.Now()
	s.sessions.Put(token, session)

	s.audit.log(AuditOAuthLoginSuccess, r, slog.String("subject", profile.Subject))
	s.renderPage(w, http.StatusOK, "auth_result.html", struct {
		Profile identity.Profile
	}{Profile: profile})
}
