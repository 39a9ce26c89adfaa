package bucket

import (
	"time"

	"github.com/shopspring/decimal"
)

type Bucket struct {
	ID              string          `gorm:"type:uuid;primaryKey"`
	UserID          string          `gorm:"type:uuid;index;not null"`
	Title           string          `gorm:"not null"`
	CurrentAmount   decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	TargetAmount    decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	BackgroundColor string          `gorm:"not null"`
	APY             decimal.Decimal `gorm:"column:apy;type:numeric(6,3);not null"`
	CreatedAt       time.Time       `gorm:"autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime"`
}

// Completed reports whether the bucket reached its target.
func (b Bucket) Completed() bool {
	return b.TargetAmount.IsPositive() && b.CurrentAmount.GreaterThanOrEqual(b.TargetAmount)
}

type CreateBucketInput struct {
	ID              string
	UserID          string
	Title           string
	TargetAmount    decimal.Decimal
	BackgroundColor string
	APY             decimal.Decimal
}

type UpdateBucketInput struct {
	ID              string
	UserID          string
	Title           *string
	TargetAmount    *decimal.Decimal
	BackgroundColor *string
	APY             *decimal.Decimal
}
