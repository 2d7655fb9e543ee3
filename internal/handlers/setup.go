package handlers

import (
	"net/http"

	"github.com/BorisDmv/vignettes/internal/store"
)

// Setup prepares the backend's schema when it has one.
func Setup(s store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ensurer, ok := store.SchemaOf(s)
		if !ok {
			respondJSON(w, http.StatusOK, map[string]string{"status": "nothing to set up"})
			return
		}
		if err := ensurer.EnsureSchema(r.Context()); err != nil {
			respondStoreError(w, err, "Failed to setup database table.")
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": `Database table "posts" created or already exists.`})
	}
}
