package reconcile

import (
	"context"
	"errors"
	"fmt"

	activitydomain "buckety-go/internal/domain/activity"
	mainbalancedomain "buckety-go/internal/domain/mainbalance"
	"buckety-go/pkg/logger"
	"github.com/shopspring/decimal"
)

type ActivityLog interface {
	ListByTypes(ctx context.Context, userID, bucketID string, types ...activitydomain.Type) ([]activitydomain.Activity, error)
}

type MainBalances interface {
	GetMainBucket(ctx context.Context, userID string) (*mainbalancedomain.MainBalance, error)
	UpdateMainBucket(ctx context.Context, userID string, amount decimal.Decimal) (*mainbalancedomain.MainBalance, error)
}

// Projection is the local cache side: the cached main balance and the
// profile's key hygiene.
type Projection interface {
	Settle(ctx context.Context, userID string) error
	SetLocalMainBalance(ctx context.Context, userID string, amount decimal.Decimal) error
	PurgeForeignKeys(ctx context.Context, userID string) ([]string, error)
}

type Service struct {
	activities ActivityLog
	balances   MainBalances
	projection Projection
	seed       decimal.Decimal
	tolerance  decimal.Decimal
	log        logger.Logger
}

func NewService(activities ActivityLog, balances MainBalances, projection Projection, seed, tolerance decimal.Decimal, log logger.Logger) *Service {
	return &Service{
		activities: activities,
		balances:   balances,
		projection: projection,
		seed:       seed,
		tolerance:  tolerance,
		log:        log.Named("reconcile"),
	}
}

// Reconcile replays the main bucket's activity log from the seed balance
// and overwrites the stored balance when it drifted past the tolerance.
func (s *Service) Reconcile(ctx context.Context, userID string) (Report, error) {
	if err := s.projection.Settle(ctx, userID); err != nil {
		return Report{}, fmt.Errorf("deliver queued writes: %w", err)
	}

	entries, err := s.activities.ListByTypes(ctx, userID, activitydomain.MainBucketID,
		activitydomain.TypeMoneyAdded, activitydomain.TypeMoneyRemoved)
	if err != nil {
		return Report{}, fmt.Errorf("load main bucket log: %w", err)
	}
	report := Report{Computed: Replay(s.seed, entries)}

	final := report.Computed
	stored, err := s.balances.GetMainBucket(ctx, userID)
	switch {
	case errors.Is(err, mainbalancedomain.ErrMainBalanceNotFound):
		if _, err := s.balances.UpdateMainBucket(ctx, userID, report.Computed); err != nil {
			return Report{}, fmt.Errorf("create main balance: %w", err)
		}
		report.Created = true
		s.log.Info("main balance created", "user_id", userID, "amount", report.Computed.String())
	case err != nil:
		return Report{}, fmt.Errorf("get main balance: %w", err)
	default:
		amount := stored.CurrentAmount
		report.Stored = &amount
		report.Discrepancy = report.Computed.Sub(amount)
		if report.Discrepancy.Abs().GreaterThan(s.tolerance) {
			if _, err := s.balances.UpdateMainBucket(ctx, userID, report.Computed); err != nil {
				return Report{}, fmt.Errorf("correct main balance: %w", err)
			}
			report.Corrected = true
			s.log.Warn("main balance drift corrected", "user_id", userID,
				"stored", amount.String(), "computed", report.Computed.String())
		} else {
			final = amount
		}
	}

	if err := s.projection.SetLocalMainBalance(ctx, userID, final); err != nil {
		return Report{}, fmt.Errorf("refresh cached main balance: %w", err)
	}
	removed, err := s.projection.PurgeForeignKeys(ctx, userID)
	if err != nil {
		return Report{}, fmt.Errorf("purge cache keys: %w", err)
	}
	report.RemovedKeys = removed
	if len(removed) > 0 {
		s.log.Info("foreign cache keys removed", "user_id", userID, "keys", removed)
	}
	return report, nil
}

// Replay sums money_added and subtracts money_removed entries from seed.
// Other activity types do not move the main balance.
func Replay(seed decimal.Decimal, entries []activitydomain.Activity) decimal.Decimal {
	total := seed
	for _, entry := range entries {
		switch entry.ActivityType {
		case activitydomain.TypeMoneyAdded:
			total = total.Add(entry.Amount)
		case activitydomain.TypeMoneyRemoved:
			total = total.Sub(entry.Amount)
		}
	}
	return total.Round(2)
}
