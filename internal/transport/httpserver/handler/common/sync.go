package common

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	syncdomain "buckety-go/internal/domain/sync"
	"buckety-go/internal/transport/httpserver/middleware"
)

const (
	minIdempotencyKeyLength = 8
	maxIdempotencyKeyLength = 128
)

type syncBatchRequest struct {
	Operations []syncOperationRequest `json:"operations"`
}

type syncOperationRequest struct {
	OperationID string          `json:"operation_id"`
	Type        string          `json:"type"`
	LocalID     string          `json:"local_id"`
	Payload     json.RawMessage `json:"payload"`
}

func (h *Handlers) SyncBatch(w http.ResponseWriter, r *http.Request) {
	startedAt := time.Now()

	var req syncBatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	if len(req.Operations) == 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "operations are required")
		return
	}
	if len(req.Operations) > syncdomain.MaxBatchOperations {
		writeError(w, http.StatusRequestEntityTooLarge, "sync_batch_too_large", "too many operations in one batch")
		return
	}

	idempotencyKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if idempotencyKey != "" && len(idempotencyKey) < minIdempotencyKeyLength {
		writeError(w, http.StatusBadRequest, "invalid_request", "idempotency key is too short")
		return
	}
	if len(idempotencyKey) > maxIdempotencyKeyLength {
		writeError(w, http.StatusBadRequest, "invalid_request", "idempotency key is too long")
		return
	}

	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	operations := make([]syncdomain.OperationInput, 0, len(req.Operations))
	for i, operation := range req.Operations {
		parsed, err := syncdomain.DecodeOperation(operation.OperationID, syncdomain.OperationType(operation.Type), operation.LocalID, operation.Payload)
		if err != nil {
			h.log.BusinessError("sync.batch: invalid operation", err, "user_id", userID, "index", i)
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid operation at index "+strconv.Itoa(i))
			return
		}
		operations = append(operations, parsed)
	}

	response, err := h.Sync.ProcessBatch(r.Context(), syncdomain.BatchInput{
		UserID:         userID,
		IdempotencyKey: idempotencyKey,
		Operations:     operations,
	})
	if err != nil {
		logAttrs := []any{
			"user_id", userID,
			"operations", len(operations),
			"has_idempotency_key", idempotencyKey != "",
			"duration_ms", time.Since(startedAt).Milliseconds(),
		}

		switch {
		case errors.Is(err, syncdomain.ErrBatchTooLarge):
			h.log.BusinessError("sync.batch: batch too large", err, logAttrs...)
			writeError(w, http.StatusRequestEntityTooLarge, "sync_batch_too_large", "too many operations in one batch")
		case errors.Is(err, syncdomain.ErrIdempotencyKeyPayloadMismatch):
			h.log.BusinessError("sync.batch: idempotency key payload mismatch", err, logAttrs...)
			writeError(w, http.StatusConflict, "idempotency_key_payload_mismatch", "Idempotency-Key was already used with different payload")
		case errors.Is(err, syncdomain.ErrBatchInProgress):
			h.log.BusinessError("sync.batch: batch in progress", err, logAttrs...)
			writeError(w, http.StatusConflict, "batch_in_progress", "sync batch is already in progress")
		default:
			h.log.InternalError("sync.batch: process batch failed", err, logAttrs...)
			writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		}
		return
	}

	h.log.Info(
		"sync: completed",
		"sync_id", response.SyncID,
		"user_id", userID,
		"status", response.Status,
		"total", response.Summary.Total,
		"applied", response.Summary.Applied,
		"duplicate", response.Summary.Duplicate,
		"failed", response.Summary.Failed,
		"has_idempotency_key", idempotencyKey != "",
		"duration_ms", time.Since(startedAt).Milliseconds(),
	)

	writeJSON(w, http.StatusOK, response)
}
