package notification

import "context"

type Repository interface {
	ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]Notification, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
	CreateNotification(ctx context.Context, notification *Notification) error
	MarkRead(ctx context.Context, userID, id string) (bool, error)
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	DeleteNotification(ctx context.Context, userID, id string) (bool, error)
}
