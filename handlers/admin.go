package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"pearl_backend/auth"
	"pearl_backend/media"
	"pearl_backend/stats"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	IsAdmin   bool      `json:"is_admin"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (h *Handler) sessionResponse(s auth.Session) sessionResponse {
	return sessionResponse{
		UserID:    s.UserID,
		Email:     s.Email,
		IsAdmin:   auth.IsAdmin(s, h.adminUID),
		ExpiresAt: s.ExpiresAt,
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	s, err := h.auth.SignIn(r.Context(), req.Email, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		h.logger.Info("Admin login rejected", zap.String("email", req.Email))
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	if err != nil {
		h.logger.Error("Admin login failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    s.Token,
		Path:     "/",
		Expires:  s.ExpiresAt,
		MaxAge:   int(h.sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, h.sessionResponse(s))
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(auth.CookieName); err == nil {
		if err := h.auth.SignOut(r.Context(), c.Value); err != nil {
			h.logger.Warn("Sign out failed", zap.Error(err))
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

// CurrentSession reports who is signed in, or 401.
func (h *Handler) CurrentSession(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(auth.CookieName)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "login required")
		return
	}
	s, err := h.auth.Lookup(r.Context(), c.Value)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "login required")
		return
	}
	writeJSON(w, http.StatusOK, h.sessionResponse(s))
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	d, err := stats.Collect(r.Context(), h.store)
	if err != nil {
		h.logger.Error("Failed to collect stats", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Could not load dashboard")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// UploadPhotos stores every "photo" part of a multipart form and returns the
// public URLs in the same order.
func (h *Handler) UploadPhotos(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid upload: "+err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["photo"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "No photo provided")
		return
	}

	urls := make([]string, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, "Failed to upload photos: "+err.Error())
			return
		}
		url, err := h.uploader.Upload(r.Context(), fh.Filename, f)
		f.Close()
		if errors.Is(err, media.ErrImageTooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fh.Filename+": image dimensions are too large")
			return
		}
		if err != nil {
			h.logger.Error("Failed to upload photo", zap.String("filename", fh.Filename), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Failed to upload photos: "+err.Error())
			return
		}
		urls = append(urls, url)
	}

	writeJSON(w, http.StatusCreated, map[string][]string{"urls": urls})
}
