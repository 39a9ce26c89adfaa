package buckets

import (
	"net/http"

	"buckety-go/internal/domain/insights"
)

func (h *Handlers) InsightsSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(w, r)
	if !ok {
		return
	}

	snapshot, err := h.Storage.LoadSnapshot(r.Context(), userID)
	if err != nil {
		h.log.InternalError("insights.summary: load projection failed", err, "user_id", userID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	figures := make([]insights.BucketFigures, 0, len(snapshot.Buckets))
	for _, bucket := range snapshot.Buckets {
		figures = append(figures, insights.BucketFigures{
			CurrentAmount: bucket.CurrentAmount,
			TargetAmount:  bucket.TargetAmount,
			APY:           bucket.APY,
		})
	}

	writeJSON(w, http.StatusOK, insights.Summarize(snapshot.MainBucket.CurrentAmount, figures))
}
