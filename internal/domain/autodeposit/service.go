package autodeposit

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

// Prepare validates input and builds the record without storing it.
func (s *Service) Prepare(input CreateAutoDepositInput) (*AutoDeposit, error) {
	if strings.TrimSpace(input.UserID) == "" || strings.TrimSpace(input.BucketID) == "" {
		return nil, fmt.Errorf("%w: user and bucket are required", ErrInvalidAutoDeposit)
	}
	if !input.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidAutoDeposit)
	}
	if !input.RepeatType.Valid() {
		return nil, fmt.Errorf("%w: unknown repeat type %q", ErrInvalidAutoDeposit, input.RepeatType)
	}
	if input.RepeatType == RepeatCustom && input.RepeatEveryDays < 1 {
		return nil, fmt.Errorf("%w: repeat_every_days must be at least 1", ErrInvalidAutoDeposit)
	}
	if !input.EndType.Valid() {
		return nil, fmt.Errorf("%w: unknown end type %q", ErrInvalidAutoDeposit, input.EndType)
	}

	now := s.now().UTC()
	if input.EndType == EndSpecificDate {
		if input.EndDate == nil {
			return nil, fmt.Errorf("%w: end_date is required", ErrInvalidAutoDeposit)
		}
		if !input.EndDate.After(now) {
			return nil, fmt.Errorf("%w: end_date must be in the future", ErrInvalidAutoDeposit)
		}
	}

	id := strings.TrimSpace(input.ID)
	if id == "" {
		id = uuid.NewString()
	}

	next := NextExecution(now, input.RepeatType, input.RepeatEveryDays, 0)
	if input.StartDate != nil {
		next = input.StartDate.UTC()
	}

	deposit := AutoDeposit{
		ID:                id,
		UserID:            input.UserID,
		BucketID:          input.BucketID,
		Amount:            input.Amount.Round(2),
		RepeatType:        input.RepeatType,
		EndType:           input.EndType,
		Status:            StatusActive,
		NextExecutionDate: next,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if input.RepeatType == RepeatCustom {
		every := input.RepeatEveryDays
		deposit.RepeatEveryDays = &every
	}
	if input.RepeatType == RepeatMonthly {
		anchor := next.Day()
		if input.StartDate == nil {
			anchor = now.Day()
		}
		deposit.AnchorDay = &anchor
	}
	if input.EndType == EndSpecificDate {
		end := input.EndDate.UTC()
		deposit.EndDate = &end
	}
	return &deposit, nil
}

func (s *Service) CreateAutoDeposit(ctx context.Context, input CreateAutoDepositInput) (*AutoDeposit, error) {
	deposit, err := s.Prepare(input)
	if err != nil {
		return nil, err
	}
	if err := s.SaveAutoDeposit(ctx, deposit); err != nil {
		return nil, err
	}
	return deposit, nil
}

// SaveAutoDeposit stores the record. An active record replaces any other
// active schedule on the same bucket, which gets cancelled.
func (s *Service) SaveAutoDeposit(ctx context.Context, deposit *AutoDeposit) error {
	if err := s.repo.SaveAutoDeposit(ctx, deposit); err != nil {
		return err
	}
	if deposit.Status != StatusActive {
		return nil
	}
	_, err := s.repo.CancelOthers(ctx, deposit.UserID, deposit.BucketID, deposit.ID, s.now().UTC())
	return err
}

func (s *Service) GetAutoDeposit(ctx context.Context, userID, id string) (*AutoDeposit, error) {
	return s.repo.GetAutoDeposit(ctx, userID, id)
}

func (s *Service) Cancel(ctx context.Context, userID, id string) error {
	updated, err := s.repo.UpdateStatus(ctx, userID, id, StatusCancelled, s.now().UTC())
	if err != nil {
		return err
	}
	if !updated {
		return ErrAutoDepositNotFound
	}
	return nil
}

func (s *Service) ListForBucket(ctx context.Context, userID, bucketID string) ([]AutoDeposit, error) {
	return s.repo.ListByBucket(ctx, userID, bucketID)
}

func (s *Service) ListForUser(ctx context.Context, userID string) ([]AutoDeposit, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *Service) ListDue(ctx context.Context, now time.Time) ([]AutoDeposit, error) {
	return s.repo.ListDue(ctx, now)
}

func (s *Service) ListActive(ctx context.Context) ([]AutoDeposit, error) {
	return s.repo.ListActive(ctx)
}

func (s *Service) Advance(ctx context.Context, id string, next time.Time, status Status) error {
	return s.repo.UpdateSchedule(ctx, id, next, status, s.now().UTC())
}
