package buckets

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	activitydomain "buckety-go/internal/domain/activity"
	"buckety-go/internal/export"
	"github.com/go-chi/chi/v5"
)

// ListActivities serves the cached activity log of a bucket or, for the
// main-bucket id, the main balance's transfer log.
func (h *Handlers) ListActivities(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(w, r)
	if !ok {
		return
	}
	bucketID := chi.URLParam(r, "id")

	limit, err := parseIntParam(r.URL.Query().Get("limit"), 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid limit")
		return
	}

	if _, err := h.Storage.LoadSnapshot(r.Context(), userID); err != nil {
		h.log.InternalError("activities.list: load projection failed", err, "user_id", userID, "bucket_id", bucketID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	items, err := h.Storage.ListActivities(r.Context(), userID, bucketID)
	if err != nil {
		h.log.InternalError("activities.list: list activities failed", err, "user_id", userID, "bucket_id", bucketID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	writeJSON(w, http.StatusOK, items)
}

// ExportActivities renders the remote activity history as an XLSX file.
func (h *Handlers) ExportActivities(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(w, r)
	if !ok {
		return
	}
	bucketID := chi.URLParam(r, "id")

	title := activitydomain.MainBucketTitle
	if !isMainBucket(bucketID) {
		snapshot, err := h.Storage.LoadSnapshot(r.Context(), userID)
		if err != nil {
			h.log.InternalError("activities.export: load projection failed", err, "user_id", userID, "bucket_id", bucketID)
			writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
			return
		}
		bucket, found := findBucket(snapshot, bucketID)
		if !found {
			writeError(w, http.StatusNotFound, "bucket_not_found", "bucket not found")
			return
		}
		title = bucket.Title
	}

	items, err := h.History.ListActivities(r.Context(), userID, bucketID)
	if err != nil {
		h.log.InternalError("activities.export: list remote activities failed", err, "user_id", userID, "bucket_id", bucketID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	var buf bytes.Buffer
	if err := export.ActivitiesXLSX(&buf, items); err != nil {
		h.log.InternalError("activities.export: render xlsx failed", err, "user_id", userID, "bucket_id", bucketID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	w.Header().Set("Content-Type", export.ContentTypeXLSX)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.FileName(title, time.Now())+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
