package buckets

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
)

type transferRequest struct {
	FromBucketID string          `json:"fromBucketId"`
	ToBucketID   string          `json:"toBucketId"`
	Amount       decimal.Decimal `json:"amount"`
}

// Transfer moves money between the main balance and buckets. Rejected
// transfers answer 422 with the same {success, error} body.
func (h *Handlers) Transfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	if strings.TrimSpace(req.FromBucketID) == "" || strings.TrimSpace(req.ToBucketID) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "fromBucketId and toBucketId are required")
		return
	}

	userID, ok := userIDFrom(w, r)
	if !ok {
		return
	}

	result, err := h.Storage.TransferMoney(r.Context(), req.FromBucketID, req.ToBucketID, req.Amount, userID)
	if err != nil {
		h.log.InternalError("transfers.create: transfer failed", err, "user_id", userID, "from", req.FromBucketID, "to", req.ToBucketID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}
	if !result.Success {
		h.log.Warn("transfers.create: transfer rejected", "user_id", userID, "from", req.FromBucketID, "to", req.ToBucketID, "reason", result.Error)
		writeJSON(w, http.StatusUnprocessableEntity, result)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
