package buckets

import (
	"errors"
	"net/http"
	"strings"

	bucketdomain "buckety-go/internal/domain/bucket"
	syncdomain "buckety-go/internal/domain/sync"
	"buckety-go/internal/outbox"
	"buckety-go/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type createBucketRequest struct {
	Title           string           `json:"title"`
	TargetAmount    decimal.Decimal  `json:"targetAmount"`
	BackgroundColor string           `json:"backgroundColor"`
	APY             *decimal.Decimal `json:"apy"`
	// Retry enables the fixed-delay retry used by the discount flow.
	Retry bool `json:"retry"`
}

type updateBucketRequest struct {
	Title           *string          `json:"title"`
	TargetAmount    *decimal.Decimal `json:"targetAmount"`
	BackgroundColor *string          `json:"backgroundColor"`
	APY             *decimal.Decimal `json:"apy"`
}

func (h *Handlers) ListBuckets(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(w, r)
	if !ok {
		return
	}

	refresh, err := parseBoolParam(r.URL.Query().Get("refresh"), false)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid refresh")
		return
	}

	var snapshot storage.Snapshot
	if refresh {
		snapshot, err = h.Storage.Hydrate(r.Context(), userID)
		if errors.Is(err, outbox.ErrUndelivered) {
			h.log.Warn("buckets.list: refresh skipped, writes still queued", "user_id", userID, "error", err)
			snapshot, err = h.Storage.LoadSnapshot(r.Context(), userID)
		}
	} else {
		snapshot, err = h.Storage.LoadSnapshot(r.Context(), userID)
	}
	if err != nil {
		h.log.InternalError("buckets.list: load buckets failed", err, "user_id", userID, "refresh", refresh)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, snapshot.Buckets)
}

func (h *Handlers) GetBucket(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(w, r)
	if !ok {
		return
	}
	bucketID := chi.URLParam(r, "id")

	snapshot, err := h.Storage.LoadSnapshot(r.Context(), userID)
	if err != nil {
		h.log.InternalError("buckets.get: load buckets failed", err, "user_id", userID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	bucket, found := findBucket(snapshot, bucketID)
	if !found {
		writeError(w, http.StatusNotFound, "bucket_not_found", "bucket not found")
		return
	}

	writeJSON(w, http.StatusOK, bucket)
}

func (h *Handlers) CreateBucket(w http.ResponseWriter, r *http.Request) {
	var req createBucketRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "title is required")
		return
	}

	userID, ok := userIDFrom(w, r)
	if !ok {
		return
	}

	input := storage.CreateBucketRequest{
		Title:           req.Title,
		TargetAmount:    req.TargetAmount,
		BackgroundColor: req.BackgroundColor,
		APY:             decimal.Zero,
	}
	if req.APY != nil {
		input.APY = *req.APY
	}

	create := h.Storage.CreateBucket
	if req.Retry {
		create = h.Storage.CreateBucketWithRetry
	}
	created, err := create(r.Context(), userID, input)
	if err != nil {
		if errors.Is(err, bucketdomain.ErrInvalidBucket) {
			h.log.BusinessError("buckets.create: validation failed", err, "user_id", userID)
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		h.log.InternalError("buckets.create: create bucket failed", err, "user_id", userID, "retry", req.Retry)
		writeError(w, http.StatusBadGateway, "remote_unavailable", "bucket could not be saved")
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *Handlers) UpdateBucket(w http.ResponseWriter, r *http.Request) {
	var req updateBucketRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	if req.Title == nil && req.TargetAmount == nil && req.BackgroundColor == nil && req.APY == nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "nothing to update")
		return
	}

	userID, ok := userIDFrom(w, r)
	if !ok {
		return
	}
	bucketID := chi.URLParam(r, "id")

	updated, err := h.Storage.UpdateBucket(r.Context(), bucketdomain.UpdateBucketInput{
		ID:              bucketID,
		UserID:          userID,
		Title:           req.Title,
		TargetAmount:    req.TargetAmount,
		BackgroundColor: req.BackgroundColor,
		APY:             req.APY,
	})
	if err != nil {
		switch {
		case errors.Is(err, bucketdomain.ErrBucketNotFound):
			h.log.BusinessError("buckets.update: bucket not found", err, "user_id", userID, "bucket_id", bucketID)
			writeError(w, http.StatusNotFound, "bucket_not_found", "bucket not found")
		case errors.Is(err, bucketdomain.ErrInvalidBucket):
			h.log.BusinessError("buckets.update: validation failed", err, "user_id", userID, "bucket_id", bucketID)
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		default:
			h.log.InternalError("buckets.update: update bucket failed", err, "user_id", userID, "bucket_id", bucketID)
			writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		}
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// DeleteBucket drops the bucket from the local projection and queues the
// remote delete.
func (h *Handlers) DeleteBucket(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(w, r)
	if !ok {
		return
	}
	bucketID := chi.URLParam(r, "id")
	if isMainBucket(bucketID) {
		writeError(w, http.StatusBadRequest, "invalid_request", "main bucket cannot be deleted")
		return
	}

	if err := h.Storage.DeleteBucket(r.Context(), userID, bucketID); err != nil {
		h.log.InternalError("buckets.delete: delete local bucket failed", err, "user_id", userID, "bucket_id", bucketID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	payload := syncdomain.DeleteBucketPayload{BucketID: bucketID}
	if _, err := h.Writes.Enqueue(r.Context(), userID, string(syncdomain.OperationTypeDeleteBucket), payload); err != nil {
		h.log.InternalError("buckets.delete: enqueue remote delete failed", err, "user_id", userID, "bucket_id", bucketID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
