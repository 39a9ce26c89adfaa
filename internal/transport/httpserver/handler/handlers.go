package handler

import (
	"buckety-go/internal/transport/httpserver/handler/autodeposits"
	"buckety-go/internal/transport/httpserver/handler/buckets"
	"buckety-go/internal/transport/httpserver/handler/common"
	"buckety-go/internal/transport/httpserver/handler/notifications"
)

type Handlers struct {
	Common        *common.Handlers
	Buckets       *buckets.Handlers
	AutoDeposits  *autodeposits.Handlers
	Notifications *notifications.Handlers
}

func New(commonHandlers *common.Handlers, bucketHandlers *buckets.Handlers, autoDepositHandlers *autodeposits.Handlers, notificationHandlers *notifications.Handlers) *Handlers {
	return &Handlers{
		Common:        commonHandlers,
		Buckets:       bucketHandlers,
		AutoDeposits:  autoDepositHandlers,
		Notifications: notificationHandlers,
	}
}
