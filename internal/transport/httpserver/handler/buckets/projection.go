package buckets

import (
	"errors"
	"net/http"

	autodepositdomain "buckety-go/internal/domain/autodeposit"
	"buckety-go/internal/domain/insights"
	"buckety-go/internal/localstore"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// Projection forecasts a bucket's balance. Without an explicit
// monthlyDeposit the bucket's active auto-deposits are used.
func (h *Handlers) Projection(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(w, r)
	if !ok {
		return
	}
	bucketID := chi.URLParam(r, "id")

	query := r.URL.Query()
	months, err := parseIntParam(query.Get("months"), insights.DefaultProjectionMonths)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid months")
		return
	}
	monthlyDeposit, err := parseDecimalParam(query.Get("monthlyDeposit"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid monthlyDeposit")
		return
	}

	snapshot, err := h.Storage.LoadSnapshot(r.Context(), userID)
	if err != nil {
		h.log.InternalError("buckets.projection: load projection failed", err, "user_id", userID, "bucket_id", bucketID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}
	bucket, found := findBucket(snapshot, bucketID)
	if !found {
		writeError(w, http.StatusNotFound, "bucket_not_found", "bucket not found")
		return
	}

	deposit := decimal.Zero
	if monthlyDeposit != nil {
		deposit = *monthlyDeposit
	} else {
		schedules, err := h.Storage.ListAutoDeposits(r.Context(), userID, bucketID)
		if err != nil {
			h.log.InternalError("buckets.projection: list auto deposits failed", err, "user_id", userID, "bucket_id", bucketID)
			writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
			return
		}
		deposit = scheduledMonthly(schedules)
	}

	projection, err := insights.Project(insights.ProjectionInput{
		Balance:        bucket.CurrentAmount,
		APY:            bucket.APY,
		MonthlyDeposit: deposit,
		Months:         months,
	})
	if err != nil {
		if errors.Is(err, insights.ErrInvalidProjection) {
			h.log.BusinessError("buckets.projection: invalid input", err, "user_id", userID, "bucket_id", bucketID)
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		h.log.InternalError("buckets.projection: project failed", err, "user_id", userID, "bucket_id", bucketID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, projection)
}

func scheduledMonthly(schedules []localstore.CachedAutoDeposit) decimal.Decimal {
	total := decimal.Zero
	for _, schedule := range schedules {
		if schedule.Status != string(autodepositdomain.StatusActive) {
			continue
		}
		total = total.Add(insights.MonthlyEquivalent(schedule.Amount, autodepositdomain.RepeatType(schedule.RepeatType), schedule.RepeatEveryDays))
	}
	return total
}
