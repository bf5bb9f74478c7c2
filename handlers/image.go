package handlers

import (
	"errors"
	"io"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"pearl_backend/media"
)

const (
	proxyHeight   = 500
	maxProxyBytes = 20 << 20
)

// FetchImageHandler fetches an image from a URL, resizes it, and returns it.
func (h *Handler) FetchImageHandler(w http.ResponseWriter, r *http.Request) {
	imageURL := r.URL.Query().Get("url")
	if imageURL == "" {
		writeError(w, http.StatusBadRequest, "URL parameter is required")
		return
	}
	u, err := url.Parse(imageURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		writeError(w, http.StatusBadRequest, "URL must be an absolute http(s) URL")
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, u.String(), nil)
	if err != nil {
		writeError(w, http.StatusBadRequest, "URL must be an absolute http(s) URL")
		return
	}
	resp, err := h.httpClient.Do(req)
	if errors.Is(err, media.ErrForbiddenAddress) {
		h.logger.Info("Refused image fetch", zap.String("url", imageURL), zap.Error(err))
		writeError(w, http.StatusForbidden, "URL host is not allowed")
		return
	}
	if err != nil {
		h.logger.Warn("Failed to fetch image", zap.String("url", imageURL), zap.Error(err))
		writeError(w, http.StatusBadGateway, "Failed to fetch image")
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		writeError(w, http.StatusBadGateway, "Failed to fetch image")
		return
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxProxyBytes))
	if err != nil {
		writeError(w, http.StatusBadGateway, "Failed to fetch image")
		return
	}
	img, format, err := media.DecodeBounded(data)
	switch {
	case errors.Is(err, media.ErrImageTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "Image is too large")
		return
	case errors.Is(err, media.ErrUnsupportedFormat):
		writeError(w, http.StatusUnsupportedMediaType, "Unsupported image format")
		return
	case err != nil:
		writeError(w, http.StatusUnsupportedMediaType, "Failed to decode image")
		return
	}

	w.Header().Set("Content-Type", "image/"+format)
	if err := media.Encode(w, media.ResizeToHeight(img, proxyHeight), format); err != nil {
		h.logger.Warn("Failed to encode image", zap.Error(err))
	}
}
