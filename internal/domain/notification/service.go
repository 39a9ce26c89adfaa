package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const defaultListLimit = 50

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, userID string, unreadOnly bool, limit int) ([]Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = defaultListLimit
	}
	return s.repo.ListByUser(ctx, userID, unreadOnly, limit)
}

func (s *Service) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *Service) CreateNotification(ctx context.Context, input CreateNotificationInput) (*Notification, error) {
	title := strings.TrimSpace(input.Title)
	if strings.TrimSpace(input.UserID) == "" || title == "" {
		return nil, fmt.Errorf("%w: user and title are required", ErrInvalidNotification)
	}
	kind := strings.TrimSpace(input.Type)
	if kind == "" {
		return nil, fmt.Errorf("%w: type is required", ErrInvalidNotification)
	}

	metadata := input.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	encoded, err := json.Marshal(metadata)
	if err != nil {
		return nil, err
	}

	notification := Notification{
		ID:       uuid.NewString(),
		UserID:   input.UserID,
		Type:     kind,
		Title:    title,
		Message:  strings.TrimSpace(input.Message),
		Metadata: encoded,
	}
	if input.Amount != nil {
		notification.Amount = decimal.NewNullDecimal(input.Amount.Round(2))
	}

	if err := s.repo.CreateNotification(ctx, &notification); err != nil {
		return nil, err
	}
	return &notification, nil
}

func (s *Service) MarkRead(ctx context.Context, userID, id string) error {
	updated, err := s.repo.MarkRead(ctx, userID, id)
	if err != nil {
		return err
	}
	if !updated {
		return ErrNotificationNotFound
	}
	return nil
}

func (s *Service) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return s.repo.MarkAllRead(ctx, userID)
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	deleted, err := s.repo.DeleteNotification(ctx, userID, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotificationNotFound
	}
	return nil
}
