package autodeposits

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	commonhandler "buckety-go/internal/transport/httpserver/handler/common"
	"buckety-go/internal/transport/httpserver/middleware"
)

func writeError(w http.ResponseWriter, status int, code, message string) {
	commonhandler.WriteError(w, status, code, message)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	commonhandler.WriteJSON(w, status, payload)
}

func decodeJSON(r *http.Request, dst interface{}) error {
	return commonhandler.DecodeJSON(r, dst)
}

func userIDFrom(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		commonhandler.WriteUnauthorized(w)
		return "", false
	}
	return userID, true
}

// parseTimeParam accepts RFC 3339 timestamps and plain dates.
func parseTimeParam(value *string) (*time.Time, error) {
	if value == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil, nil
	}
	if parsed, err := time.Parse(time.RFC3339, trimmed); err == nil {
		return &parsed, nil
	}
	parsed, err := time.Parse(time.DateOnly, trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q", trimmed)
	}
	return &parsed, nil
}
