package mainbalance

import (
	"time"

	"github.com/shopspring/decimal"
)

// MainBalance is the per-user "main bucket": a balance with no target.
type MainBalance struct {
	ID            string          `gorm:"type:uuid;primaryKey"`
	UserID        string          `gorm:"type:uuid;uniqueIndex;not null"`
	CurrentAmount decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	UpdatedAt     time.Time       `gorm:"not null"`
}

func (MainBalance) TableName() string {
	return "main_buckets"
}
