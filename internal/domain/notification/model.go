package notification

import (
	"time"

	"github.com/shopspring/decimal"
)

const TypeAutoDeposit = "auto_deposit"

type Notification struct {
	ID        string              `gorm:"type:uuid;primaryKey"`
	UserID    string              `gorm:"type:uuid;index;not null"`
	Type      string              `gorm:"not null"`
	Title     string              `gorm:"not null"`
	Message   string              `gorm:"not null"`
	Amount    decimal.NullDecimal `gorm:"type:numeric(14,2)"`
	Metadata  []byte              `gorm:"type:jsonb;not null"`
	IsRead    bool                `gorm:"not null"`
	CreatedAt time.Time           `gorm:"autoCreateTime"`
}

type CreateNotificationInput struct {
	UserID   string
	Type     string
	Title    string
	Message  string
	Amount   *decimal.Decimal
	Metadata map[string]string
}
