package mainbalance

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type Repository interface {
	GetByUser(ctx context.Context, userID string) (*MainBalance, error)
	UpdateAmount(ctx context.Context, userID string, amount decimal.Decimal, updatedAt time.Time) (bool, error)
	// Create inserts the row unless the user already has one.
	Create(ctx context.Context, balance *MainBalance) (bool, error)
}
