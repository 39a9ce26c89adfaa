package autodeposits

import (
	"errors"
	"net/http"

	autodepositdomain "buckety-go/internal/domain/autodeposit"
	bucketdomain "buckety-go/internal/domain/bucket"
	"buckety-go/internal/localstore"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type createAutoDepositRequest struct {
	Amount          decimal.Decimal `json:"amount"`
	RepeatType      string          `json:"repeatType"`
	RepeatEveryDays int             `json:"repeatEveryDays"`
	EndType         string          `json:"endType"`
	EndDate         *string         `json:"endDate"`
	StartDate       *string         `json:"startDate"`
}

func (h *Handlers) ListBucketAutoDeposits(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(w, r)
	if !ok {
		return
	}
	bucketID := chi.URLParam(r, "id")

	if _, err := h.Store.LoadSnapshot(r.Context(), userID); err != nil {
		h.log.InternalError("auto_deposits.list_bucket: load projection failed", err, "user_id", userID, "bucket_id", bucketID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	items, err := h.Store.ListAutoDeposits(r.Context(), userID, bucketID)
	if err != nil {
		h.log.InternalError("auto_deposits.list_bucket: list failed", err, "user_id", userID, "bucket_id", bucketID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, items)
}

// ListAutoDeposits returns every schedule of the user from the remote store.
func (h *Handlers) ListAutoDeposits(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(w, r)
	if !ok {
		return
	}

	items, err := h.Schedules.ListForUser(r.Context(), userID)
	if err != nil {
		h.log.InternalError("auto_deposits.list: list failed", err, "user_id", userID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	response := make([]localstore.CachedAutoDeposit, 0, len(items))
	for _, item := range items {
		every := 0
		if item.RepeatEveryDays != nil {
			every = *item.RepeatEveryDays
		}
		response = append(response, localstore.CachedAutoDeposit{
			ID:                item.ID,
			BucketID:          item.BucketID,
			Amount:            item.Amount,
			RepeatType:        string(item.RepeatType),
			RepeatEveryDays:   every,
			EndType:           string(item.EndType),
			EndDate:           item.EndDate,
			Status:            string(item.Status),
			NextExecutionDate: item.NextExecutionDate,
		})
	}

	writeJSON(w, http.StatusOK, response)
}

func (h *Handlers) CreateAutoDeposit(w http.ResponseWriter, r *http.Request) {
	var req createAutoDepositRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	endDate, err := parseTimeParam(req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid endDate")
		return
	}
	startDate, err := parseTimeParam(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid startDate")
		return
	}

	userID, ok := userIDFrom(w, r)
	if !ok {
		return
	}
	bucketID := chi.URLParam(r, "id")

	if _, err := h.Store.LoadSnapshot(r.Context(), userID); err != nil {
		h.log.InternalError("auto_deposits.create: load projection failed", err, "user_id", userID, "bucket_id", bucketID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	created, err := h.Store.CreateAutoDeposit(r.Context(), autodepositdomain.CreateAutoDepositInput{
		UserID:          userID,
		BucketID:        bucketID,
		Amount:          req.Amount,
		RepeatType:      autodepositdomain.RepeatType(req.RepeatType),
		RepeatEveryDays: req.RepeatEveryDays,
		EndType:         autodepositdomain.EndType(req.EndType),
		EndDate:         endDate,
		StartDate:       startDate,
	})
	if err != nil {
		switch {
		case errors.Is(err, autodepositdomain.ErrInvalidAutoDeposit):
			h.log.BusinessError("auto_deposits.create: validation failed", err, "user_id", userID, "bucket_id", bucketID)
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		case errors.Is(err, bucketdomain.ErrBucketNotFound):
			h.log.BusinessError("auto_deposits.create: bucket not found", err, "user_id", userID, "bucket_id", bucketID)
			writeError(w, http.StatusNotFound, "bucket_not_found", "bucket not found")
		default:
			h.log.InternalError("auto_deposits.create: create failed", err, "user_id", userID, "bucket_id", bucketID)
			writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		}
		return
	}

	// A pending schedule is saved locally and queued for the remote store.
	status := http.StatusCreated
	if created.Pending {
		status = http.StatusAccepted
	}
	writeJSON(w, status, created)
}

func (h *Handlers) CancelAutoDeposit(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	if err := h.Store.CancelAutoDeposit(r.Context(), userID, id); err != nil {
		if errors.Is(err, autodepositdomain.ErrAutoDepositNotFound) {
			h.log.BusinessError("auto_deposits.cancel: not found", err, "user_id", userID, "auto_deposit_id", id)
			writeError(w, http.StatusNotFound, "auto_deposit_not_found", "auto deposit not found")
			return
		}
		h.log.InternalError("auto_deposits.cancel: cancel failed", err, "user_id", userID, "auto_deposit_id", id)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
