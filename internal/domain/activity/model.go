package activity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MainBucketID is the bucket id under which the main balance keeps its own log.
const MainBucketID = "main-bucket"

// MainBucketTitle is the label used for the main balance in from/to fields.
const MainBucketTitle = "Main Bucket"

type Type string

const (
	TypeBucketCreated Type = "bucket_created"
	TypeMoneyAdded    Type = "money_added"
	TypeMoneyRemoved  Type = "money_removed"
	TypeWithdrawal    Type = "withdrawal"
	TypeAPYEarnings   Type = "apy_earnings"
	TypeAutoDeposit   Type = "auto_deposit"
)

func (t Type) Valid() bool {
	switch t {
	case TypeBucketCreated, TypeMoneyAdded, TypeMoneyRemoved, TypeWithdrawal, TypeAPYEarnings, TypeAutoDeposit:
		return true
	default:
		return false
	}
}

// Activity rows are append-only. ClientID is the idempotency key chosen by
// whoever produced the row; it is unique across the table.
type Activity struct {
	ID            string          `gorm:"type:uuid;primaryKey"`
	ClientID      string          `gorm:"column:client_id;not null;uniqueIndex"`
	UserID        string          `gorm:"type:uuid;index;not null"`
	BucketID      string          `gorm:"not null"`
	ActivityType  Type            `gorm:"column:activity_type;not null"`
	Title         string          `gorm:"not null"`
	Amount        decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	FromSource    *string         `gorm:"column:from_source"`
	ToDestination *string         `gorm:"column:to_destination"`
	Date          time.Time       `gorm:"not null"`
	Description   *string         `gorm:"type:text"`
	CreatedAt     time.Time       `gorm:"autoCreateTime"`
}

type CreateActivityInput struct {
	ClientID      string
	UserID        string
	BucketID      string
	Type          Type
	Title         string
	Amount        decimal.Decimal
	FromSource    string
	ToDestination string
	Description   string
	Date          time.Time
}

// BucketCreatedClientID is the deterministic idempotency key of the
// synthetic activity written when a bucket is created.
func BucketCreatedClientID(bucketID string) string {
	return "bucket-created-" + bucketID
}
