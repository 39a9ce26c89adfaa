package localstore

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cached records use the browser client's camelCase field names so mirrored
// values stay readable by both sides.

type CachedBucket struct {
	ID              string          `json:"id"`
	Title           string          `json:"title"`
	CurrentAmount   decimal.Decimal `json:"currentAmount"`
	TargetAmount    decimal.Decimal `json:"targetAmount"`
	BackgroundColor string          `json:"backgroundColor"`
	APY             decimal.Decimal `json:"apy"`
	CreatedAt       time.Time       `json:"createdAt"`
}

type CachedMainBucket struct {
	CurrentAmount decimal.Decimal `json:"currentAmount"`
	Title         string          `json:"title"`
}

// DefaultMainBucket is served when nothing usable is cached.
func DefaultMainBucket() CachedMainBucket {
	return CachedMainBucket{CurrentAmount: decimal.NewFromInt(100), Title: "Main Bucket"}
}

// CachedActivity.ID is the activity's client id, the same key the remote row
// is stored under.
type CachedActivity struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Title       string          `json:"title"`
	Amount      decimal.Decimal `json:"amount"`
	From        string          `json:"from,omitempty"`
	To          string          `json:"to,omitempty"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description,omitempty"`
}

type CachedAutoDeposit struct {
	ID                string          `json:"id"`
	BucketID          string          `json:"bucketId"`
	Amount            decimal.Decimal `json:"amount"`
	RepeatType        string          `json:"repeatType"`
	RepeatEveryDays   int             `json:"repeatEveryDays,omitempty"`
	EndType           string          `json:"endType"`
	EndDate           *time.Time      `json:"endDate,omitempty"`
	Status            string          `json:"status"`
	NextExecutionDate time.Time       `json:"nextExecutionDate"`
	// Pending is set while the remote row has not been confirmed.
	Pending bool `json:"pending,omitempty"`
}
