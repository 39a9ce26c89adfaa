package notifications

import (
	"net/http"

	notificationdomain "buckety-go/internal/domain/notification"
	commonhandler "buckety-go/internal/transport/httpserver/handler/common"
	"buckety-go/pkg/logger"
)

type Handlers struct {
	Notifications *notificationdomain.Service
	log           logger.Logger
}

func New(notifications *notificationdomain.Service, log logger.Logger) *Handlers {
	return &Handlers{
		Notifications: notifications,
		log:           log,
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	commonhandler.WriteError(w, status, code, message)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	commonhandler.WriteJSON(w, status, payload)
}
