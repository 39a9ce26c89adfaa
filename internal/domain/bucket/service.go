package bucket

import (
	"context"
	"fmt"
	"strings"
	"time"

	activitydomain "buckety-go/internal/domain/activity"
	"buckety-go/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const maxTitleLength = 80

type ActivityRecorder interface {
	CreateActivity(ctx context.Context, input activitydomain.CreateActivityInput) (*activitydomain.Activity, error)
}

type Service struct {
	repo       Repository
	activities ActivityRecorder
	log        logger.Logger
	now        func() time.Time
}

func NewService(repo Repository, activities ActivityRecorder, log logger.Logger) *Service {
	return &Service{
		repo:       repo,
		activities: activities,
		log:        log,
		now:        time.Now,
	}
}

func (s *Service) ListBuckets(ctx context.Context, userID string) ([]Bucket, error) {
	return s.repo.ListBuckets(ctx, userID)
}

func (s *Service) GetBucket(ctx context.Context, userID, bucketID string) (*Bucket, error) {
	return s.repo.GetBucket(ctx, userID, bucketID)
}

// CreateBucket stores the bucket and then records its bucket_created
// activity. The two writes are not atomic: when the activity write fails
// the bucket is kept and the failure is only logged.
func (s *Service) CreateBucket(ctx context.Context, input CreateBucketInput) (*Bucket, error) {
	title, err := validateTitle(input.Title)
	if err != nil {
		return nil, err
	}
	if !input.TargetAmount.IsPositive() {
		return nil, fmt.Errorf("%w: target amount must be positive", ErrInvalidBucket)
	}
	if input.APY.IsNegative() {
		return nil, fmt.Errorf("%w: apy must not be negative", ErrInvalidBucket)
	}

	id := strings.TrimSpace(input.ID)
	if id == "" {
		id = uuid.NewString()
	}

	bucket := Bucket{
		ID:              id,
		UserID:          input.UserID,
		Title:           title,
		CurrentAmount:   decimal.Zero,
		TargetAmount:    input.TargetAmount.Round(2),
		BackgroundColor: strings.TrimSpace(input.BackgroundColor),
		APY:             input.APY,
	}

	if err := s.repo.CreateBucket(ctx, &bucket); err != nil {
		return nil, err
	}

	_, err = s.activities.CreateActivity(ctx, activitydomain.CreateActivityInput{
		ClientID:      activitydomain.BucketCreatedClientID(bucket.ID),
		UserID:        bucket.UserID,
		BucketID:      bucket.ID,
		Type:          activitydomain.TypeBucketCreated,
		Title:         "Bucket created",
		Amount:        decimal.Zero,
		ToDestination: bucket.Title,
		Date:          s.now().UTC(),
	})
	if err != nil {
		s.log.InternalError("bucket.create: record activity failed", err, "user_id", bucket.UserID, "bucket_id", bucket.ID)
	}

	return &bucket, nil
}

func (s *Service) UpdateBucket(ctx context.Context, input UpdateBucketInput) (*Bucket, error) {
	bucket, err := s.repo.GetBucket(ctx, input.UserID, input.ID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		title, err := validateTitle(*input.Title)
		if err != nil {
			return nil, err
		}
		bucket.Title = title
	}
	if input.TargetAmount != nil {
		if !input.TargetAmount.IsPositive() {
			return nil, fmt.Errorf("%w: target amount must be positive", ErrInvalidBucket)
		}
		bucket.TargetAmount = input.TargetAmount.Round(2)
	}
	if input.BackgroundColor != nil {
		bucket.BackgroundColor = strings.TrimSpace(*input.BackgroundColor)
	}
	if input.APY != nil {
		if input.APY.IsNegative() {
			return nil, fmt.Errorf("%w: apy must not be negative", ErrInvalidBucket)
		}
		bucket.APY = *input.APY
	}
	bucket.UpdatedAt = s.now().UTC()

	if err := s.repo.UpdateBucket(ctx, bucket); err != nil {
		return nil, err
	}
	return bucket, nil
}

func (s *Service) UpdateAmount(ctx context.Context, userID, bucketID string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("%w: amount must not be negative", ErrInvalidBucket)
	}
	updated, err := s.repo.UpdateAmount(ctx, userID, bucketID, amount.Round(2), s.now().UTC())
	if err != nil {
		return err
	}
	if !updated {
		return ErrBucketNotFound
	}
	return nil
}

func (s *Service) DeleteBucket(ctx context.Context, userID, bucketID string) error {
	deleted, err := s.repo.DeleteBucket(ctx, userID, bucketID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrBucketNotFound
	}
	return nil
}

func validateTitle(value string) (string, error) {
	title := strings.TrimSpace(value)
	if title == "" {
		return "", fmt.Errorf("%w: title is required", ErrInvalidBucket)
	}
	if len([]rune(title)) > maxTitleLength {
		return "", fmt.Errorf("%w: title is too long", ErrInvalidBucket)
	}
	return title, nil
}
