package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// CacheHandler handles cache administration.
type CacheHandler struct {
	deps CacheEvicter
}

// NewCacheHandler creates a new cache handler.
func NewCacheHandler(deps CacheEvicter) *CacheHandler {
	return &CacheHandler{deps: deps}
}

// HandleEvict handles DELETE /api/v1/cache/{fingerprint} requests.
func (h *CacheHandler) HandleEvict(w http.ResponseWriter, r *http.Request) {
	fp := strings.TrimSpace(chi.URLParam(r, "fingerprint"))
	if fp == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	if !h.deps.Evict(r.Context(), fp) {
		writeError(w, http.StatusNotFound, "not_found", errors.New("no cached result for fingerprint"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
