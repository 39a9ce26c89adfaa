package common

import (
	"errors"
	"net/http"

	preferencesdomain "buckety-go/internal/domain/preferences"
	"buckety-go/internal/transport/httpserver/middleware"
)

type preferencesResponse struct {
	Theme preferencesdomain.Theme `json:"theme"`
}

type updatePreferencesRequest struct {
	Theme string `json:"theme"`
}

func (h *Handlers) GetPreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		WriteUnauthorized(w)
		return
	}

	prefs, err := h.Preferences.Get(r.Context(), userID)
	if err != nil {
		h.log.InternalError("preferences.get: get preferences failed", err, "user_id", userID)
		WriteInternal(w)
		return
	}

	writeJSON(w, http.StatusOK, preferencesResponse{Theme: prefs.Theme})
}

func (h *Handlers) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var req updatePreferencesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		WriteUnauthorized(w)
		return
	}

	prefs, err := h.Preferences.SetTheme(r.Context(), userID, preferencesdomain.Theme(req.Theme))
	if err != nil {
		if errors.Is(err, preferencesdomain.ErrInvalidTheme) {
			h.log.BusinessError("preferences.update: invalid theme", err, "user_id", userID, "theme", req.Theme)
			writeError(w, http.StatusBadRequest, "invalid_request", "theme must be light, dark or system")
			return
		}
		h.log.InternalError("preferences.update: save preferences failed", err, "user_id", userID)
		WriteInternal(w)
		return
	}

	writeJSON(w, http.StatusOK, preferencesResponse{Theme: prefs.Theme})
}
