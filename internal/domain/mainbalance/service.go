package mainbalance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) GetMainBucket(ctx context.Context, userID string) (*MainBalance, error) {
	return s.repo.GetByUser(ctx, userID)
}

// UpdateMainBucket is an upsert: update the user's row, insert one when
// nothing matched. A concurrent insert that wins the race is followed by a
// second update so the caller's amount is the one that sticks.
func (s *Service) UpdateMainBucket(ctx context.Context, userID string, amount decimal.Decimal) (*MainBalance, error) {
	if amount.IsNegative() {
		return nil, ErrNegativeBalance
	}
	amount = amount.Round(2)
	now := s.now().UTC()

	updated, err := s.repo.UpdateAmount(ctx, userID, amount, now)
	if err != nil {
		return nil, err
	}
	if updated {
		return s.repo.GetByUser(ctx, userID)
	}

	balance := MainBalance{
		ID:            uuid.NewString(),
		UserID:        userID,
		CurrentAmount: amount,
		UpdatedAt:     now,
	}
	created, err := s.repo.Create(ctx, &balance)
	if err != nil {
		return nil, err
	}
	if created {
		return &balance, nil
	}

	if _, err := s.repo.UpdateAmount(ctx, userID, amount, now); err != nil {
		return nil, err
	}
	return s.repo.GetByUser(ctx, userID)
}
