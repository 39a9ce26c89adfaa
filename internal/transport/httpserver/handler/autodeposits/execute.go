package autodeposits

import (
	"net/http"
	"strings"
	"time"

	autodepositdomain "buckety-go/internal/domain/autodeposit"
	"buckety-go/internal/transport/httpserver/middleware"
)

type executeRequest struct {
	UserID string `json:"userId"`
}

type executeResponse struct {
	Success  bool   `json:"success"`
	Executed int    `json:"executed"`
	Message  string `json:"message"`
}

type cronErrorResponse struct {
	Success   bool      `json:"success"`
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

// Execute runs the due schedules of one user. POST takes {userId} in the
// body, GET takes ?userId=. Callers may only execute their own schedules.
func (h *Handlers) Execute(w http.ResponseWriter, r *http.Request) {
	var userID string
	if r.Method == http.MethodPost {
		var req executeRequest
		if err := decodeJSON(r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, executeResponse{Message: "invalid json body"})
			return
		}
		userID = req.UserID
	} else {
		userID = r.URL.Query().Get("userId")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		writeJSON(w, http.StatusBadRequest, executeResponse{Message: "userId is required"})
		return
	}

	caller, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	if caller != userID {
		h.log.Warn("auto_deposits.execute: user mismatch", "user_id", caller, "requested_user_id", userID)
		writeJSON(w, http.StatusForbidden, executeResponse{Message: "cannot execute auto deposits of another user"})
		return
	}

	summary, err := h.Executor.ExecuteForUser(r.Context(), userID)
	if err != nil {
		h.log.InternalError("auto_deposits.execute: execute failed", err, "user_id", userID, "executed", summary.Executed)
		writeJSON(w, http.StatusInternalServerError, executeResponse{
			Executed: summary.Executed,
			Message:  "failed to execute auto deposits",
		})
		return
	}

	writeJSON(w, http.StatusOK, executeResponse{
		Success:  true,
		Executed: summary.Executed,
		Message:  summary.Message(),
	})
}

// CronRun executes every due schedule. It sits behind the cron secret.
func (h *Handlers) CronRun(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	result, err := h.Executor.RunDue(r.Context())
	h.writeRunResult(w, "cron.auto_deposits", started, result, err)
}

// CronRunAll is the manual trigger: every active schedule runs regardless of
// its next execution date.
func (h *Handlers) CronRunAll(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	result, err := h.Executor.RunAll(r.Context())
	h.writeRunResult(w, "cron.auto_deposits_manual", started, result, err)
}

func (h *Handlers) writeRunResult(w http.ResponseWriter, op string, started time.Time, result autodepositdomain.RunResult, err error) {
	if err != nil {
		h.log.InternalError(op+": run failed", err)
		writeJSON(w, http.StatusInternalServerError, cronErrorResponse{
			Error:     "failed to process auto deposits",
			Timestamp: time.Now().UTC(),
		})
		return
	}

	h.log.Info(op+": completed", "executed", result.TotalExecuted, "users", result.UsersProcessed, "duration_ms", time.Since(started).Milliseconds())
	writeJSON(w, http.StatusOK, result)
}
