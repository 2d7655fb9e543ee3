package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/BorisDmv/vignettes/internal/media"
)

type MediaHandler struct {
	reader media.Reader
}

func NewMediaHandler(reader media.Reader) *MediaHandler {
	return &MediaHandler{reader: reader}
}

func (h *MediaHandler) Get(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := h.reader.Open(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, media.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		respondStoreError(w, err, "failed to load media")
		return
	}
	w.Header().Set("Content-Type", contentType)
	// Media ids are never reused.
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	_, _ = w.Write(data)
}
