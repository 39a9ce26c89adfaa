package buckets

import (
	"errors"
	"net/http"

	"buckety-go/internal/outbox"
)

func (h *Handlers) GetMainBucket(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(w, r)
	if !ok {
		return
	}

	snapshot, err := h.Storage.LoadSnapshot(r.Context(), userID)
	if err != nil {
		h.log.InternalError("main_bucket.get: load projection failed", err, "user_id", userID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, snapshot.MainBucket)
}

func (h *Handlers) ReconcileMainBucket(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(w, r)
	if !ok {
		return
	}

	report, err := h.Reconcile.Reconcile(r.Context(), userID)
	if err != nil {
		if errors.Is(err, outbox.ErrUndelivered) {
			h.log.Warn("main_bucket.reconcile: queued writes not delivered", "user_id", userID, "error", err)
			writeError(w, http.StatusServiceUnavailable, "sync_pending", "queued writes are not delivered yet")
			return
		}
		h.log.InternalError("main_bucket.reconcile: reconcile failed", err, "user_id", userID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	h.log.Info("main_bucket: reconciled", "user_id", userID, "computed", report.Computed, "corrected", report.Corrected, "created", report.Created)
	writeJSON(w, http.StatusOK, report)
}
