package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/BorisDmv/vignettes/internal/assistant"
	"github.com/BorisDmv/vignettes/internal/store"
)

// maxBodyBytes leaves room for an embedded image or audio data URL.
const maxBodyBytes = 10 << 20

func Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return false
	}
	return true
}

// respondStoreError maps the error taxonomy onto status codes. what is
// the message for failures the client cannot act on.
func respondStoreError(w http.ResponseWriter, err error, what string) {
	switch {
	case errors.Is(err, store.ErrValidation):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, store.ErrBusy):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, assistant.ErrUnavailable):
		respondError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, store.ErrTransport):
		log.Printf("%s: %v", what, err)
		respondError(w, http.StatusBadGateway, what)
	default:
		log.Printf("%s: %v", what, err)
		respondError(w, http.StatusInternalServerError, what)
	}
}

func parsePositiveInt(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
