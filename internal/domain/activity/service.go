package activity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) ListActivities(ctx context.Context, userID, bucketID string) ([]Activity, error) {
	return s.repo.ListByBucket(ctx, userID, bucketID, nil)
}

func (s *Service) ListByTypes(ctx context.Context, userID, bucketID string, types ...Type) ([]Activity, error) {
	return s.repo.ListByBucket(ctx, userID, bucketID, types)
}

func (s *Service) ListRecent(ctx context.Context, userID string, limit int) ([]Activity, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.repo.ListByUser(ctx, userID, limit)
}

func (s *Service) CreateActivity(ctx context.Context, input CreateActivityInput) (*Activity, error) {
	if strings.TrimSpace(input.UserID) == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidActivity)
	}
	bucketID := strings.TrimSpace(input.BucketID)
	if bucketID == "" {
		return nil, fmt.Errorf("%w: bucket id is required", ErrInvalidActivity)
	}
	if !input.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown activity type %q", ErrInvalidActivity, input.Type)
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidActivity)
	}

	clientID := strings.TrimSpace(input.ClientID)
	if clientID == "" {
		clientID = uuid.NewString()
	}
	date := input.Date
	if date.IsZero() {
		date = s.now().UTC()
	}

	activity := Activity{
		ID:            uuid.NewString(),
		ClientID:      clientID,
		UserID:        input.UserID,
		BucketID:      bucketID,
		ActivityType:  input.Type,
		Title:         title,
		Amount:        input.Amount.Round(2),
		FromSource:    optionalString(input.FromSource),
		ToDestination: optionalString(input.ToDestination),
		Date:          date,
		Description:   optionalString(input.Description),
	}

	created, existing, err := s.repo.CreateActivity(ctx, &activity)
	if err != nil {
		return nil, err
	}
	if !created && existing != nil {
		return existing, nil
	}
	return &activity, nil
}

func optionalString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
