package autodeposit

import (
	"time"

	"github.com/shopspring/decimal"
)

type RepeatType string

const (
	RepeatDaily    RepeatType = "daily"
	RepeatWeekly   RepeatType = "weekly"
	RepeatBiweekly RepeatType = "biweekly"
	RepeatMonthly  RepeatType = "monthly"
	RepeatCustom   RepeatType = "custom"
)

func (r RepeatType) Valid() bool {
	switch r {
	case RepeatDaily, RepeatWeekly, RepeatBiweekly, RepeatMonthly, RepeatCustom:
		return true
	default:
		return false
	}
}

type EndType string

const (
	EndBucketCompleted EndType = "bucket_completed"
	EndSpecificDate    EndType = "specific_date"
)

func (e EndType) Valid() bool {
	return e == EndBucketCompleted || e == EndSpecificDate
}

type Status string

const (
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
)

type AutoDeposit struct {
	ID              string          `gorm:"type:uuid;primaryKey"`
	UserID          string          `gorm:"type:uuid;index;not null"`
	BucketID        string          `gorm:"type:uuid;index;not null"`
	Amount          decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	RepeatType      RepeatType      `gorm:"not null"`
	RepeatEveryDays *int            `gorm:"column:repeat_every_days"`
	// AnchorDay is the day of month a monthly schedule lands on.
	AnchorDay         *int       `gorm:"column:anchor_day"`
	EndType           EndType    `gorm:"not null"`
	EndDate           *time.Time `gorm:"column:end_date"`
	Status            Status     `gorm:"not null"`
	NextExecutionDate time.Time  `gorm:"not null"`
	CreatedAt         time.Time  `gorm:"autoCreateTime"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime"`
}

type CreateAutoDepositInput struct {
	ID              string
	UserID          string
	BucketID        string
	Amount          decimal.Decimal
	RepeatType      RepeatType
	RepeatEveryDays int
	EndType         EndType
	EndDate         *time.Time
	StartDate       *time.Time
}

// NextExecution returns the execution date following from. Monthly
// schedules land on anchorDay, or on from's day when anchorDay is zero,
// clamped to the last day of a shorter month.
func NextExecution(from time.Time, repeat RepeatType, everyDays, anchorDay int) time.Time {
	switch repeat {
	case RepeatDaily:
		return from.AddDate(0, 0, 1)
	case RepeatWeekly:
		return from.AddDate(0, 0, 7)
	case RepeatBiweekly:
		return from.AddDate(0, 0, 14)
	case RepeatMonthly:
		return nextMonthly(from, anchorDay)
	default:
		if everyDays < 1 {
			everyDays = 1
		}
		return from.AddDate(0, 0, everyDays)
	}
}

// NextAfter advances from until it is strictly after now. Missed periods
// are skipped rather than executed back to back.
func NextAfter(from, now time.Time, repeat RepeatType, everyDays, anchorDay int) time.Time {
	if repeat == RepeatMonthly && anchorDay == 0 {
		anchorDay = from.Day()
	}
	next := NextExecution(from, repeat, everyDays, anchorDay)
	for !next.After(now) {
		next = NextExecution(next, repeat, everyDays, anchorDay)
	}
	return next
}

func nextMonthly(from time.Time, anchorDay int) time.Time {
	if anchorDay < 1 {
		anchorDay = from.Day()
	}
	year, month, _ := from.Date()
	month++
	lastDay := time.Date(year, month+1, 0, 0, 0, 0, 0, from.Location()).Day()
	if anchorDay > lastDay {
		anchorDay = lastDay
	}
	return time.Date(year, month, anchorDay, from.Hour(), from.Minute(), from.Second(), from.Nanosecond(), from.Location())
}

func (d AutoDeposit) everyDays() int {
	if d.RepeatEveryDays == nil {
		return 0
	}
	return *d.RepeatEveryDays
}

func (d AutoDeposit) anchorDay() int {
	if d.AnchorDay == nil {
		return 0
	}
	return *d.AnchorDay
}

// Expired reports whether a specific_date schedule has run past its end.
func (d AutoDeposit) Expired(at time.Time) bool {
	return d.EndType == EndSpecificDate && d.EndDate != nil && at.After(*d.EndDate)
}
