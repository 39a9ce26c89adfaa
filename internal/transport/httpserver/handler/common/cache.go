package common

import (
	"encoding/json"
	"io"
	"net/http"

	"buckety-go/internal/localstore"
	"buckety-go/internal/transport/httpserver/middleware"
	"github.com/go-chi/chi/v5"
)

// maxCacheValueBytes caps a mirrored client value.
const maxCacheValueBytes = 64 << 10

// GetCacheValue returns a raw value from the caller's cache profile. Server
// maintained keys such as buckets_{userId} are readable too.
func (h *Handlers) GetCacheValue(w http.ResponseWriter, r *http.Request) {
	userID, key, ok := h.cacheKey(w, r, false)
	if !ok {
		return
	}

	value, found, err := h.Cache.Raw(r.Context(), userID, key)
	if err != nil {
		h.log.InternalError("cache.get: read failed", err, "user_id", userID, "key", key)
		WriteInternal(w)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "key_not_found", "key not found")
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(value)
}

func (h *Handlers) PutCacheValue(w http.ResponseWriter, r *http.Request) {
	userID, key, ok := h.cacheKey(w, r, true)
	if !ok {
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxCacheValueBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "cannot read body")
		return
	}
	if len(body) > maxCacheValueBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "value_too_large", "value is too large")
		return
	}
	if !json.Valid(body) {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	if err := h.Cache.SetRaw(r.Context(), userID, key, body); err != nil {
		h.log.InternalError("cache.put: write failed", err, "user_id", userID, "key", key)
		WriteInternal(w)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) DeleteCacheValue(w http.ResponseWriter, r *http.Request) {
	userID, key, ok := h.cacheKey(w, r, true)
	if !ok {
		return
	}

	if err := h.Cache.DeleteRaw(r.Context(), userID, key); err != nil {
		h.log.InternalError("cache.delete: delete failed", err, "user_id", userID, "key", key)
		WriteInternal(w)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) cacheKey(w http.ResponseWriter, r *http.Request, write bool) (string, string, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		WriteUnauthorized(w)
		return "", "", false
	}

	key := chi.URLParam(r, "key")
	if !localstore.ValidKey(key) {
		writeError(w, http.StatusBadRequest, "invalid_key", "invalid key")
		return "", "", false
	}
	if owner, scoped := localstore.OwnerOf(key); scoped && owner != userID {
		writeError(w, http.StatusForbidden, "forbidden_key", "key belongs to another user")
		return "", "", false
	}
	if write && localstore.IsServerKey(key, userID) {
		writeError(w, http.StatusForbidden, "read_only_key", "key is maintained by the server")
		return "", "", false
	}
	return userID, key, true
}
