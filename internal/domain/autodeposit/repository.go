package autodeposit

import (
	"context"
	"time"
)

type Repository interface {
	ListByBucket(ctx context.Context, userID, bucketID string) ([]AutoDeposit, error)
	ListByUser(ctx context.Context, userID string) ([]AutoDeposit, error)
	GetAutoDeposit(ctx context.Context, userID, id string) (*AutoDeposit, error)
	// SaveAutoDeposit inserts the row or overwrites it when the id exists.
	SaveAutoDeposit(ctx context.Context, deposit *AutoDeposit) error
	CancelOthers(ctx context.Context, userID, bucketID, keepID string, at time.Time) (int64, error)
	UpdateStatus(ctx context.Context, userID, id string, status Status, at time.Time) (bool, error)
	UpdateSchedule(ctx context.Context, id string, next time.Time, status Status, at time.Time) error
	ListDue(ctx context.Context, now time.Time) ([]AutoDeposit, error)
	ListActive(ctx context.Context) ([]AutoDeposit, error)
}
