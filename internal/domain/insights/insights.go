package insights

import (
	"fmt"

	autodepositdomain "buckety-go/internal/domain/autodeposit"
	"github.com/shopspring/decimal"
)

var (
	hundred      = decimal.NewFromInt(100)
	twelve       = decimal.NewFromInt(12)
	daysPerMonth = decimal.NewFromInt(365).Div(twelve)
)

// Project compounds interest monthly at APY/12 and adds the monthly deposit
// at the end of each month. Every step is rounded to cents.
func Project(input ProjectionInput) (Projection, error) {
	months := input.Months
	if months == 0 {
		months = DefaultProjectionMonths
	}
	if months < 1 || months > MaxProjectionMonths {
		return Projection{}, fmt.Errorf("%w: months must be between 1 and %d", ErrInvalidProjection, MaxProjectionMonths)
	}
	if input.APY.IsNegative() || input.Balance.IsNegative() || input.MonthlyDeposit.IsNegative() {
		return Projection{}, fmt.Errorf("%w: amounts must not be negative", ErrInvalidProjection)
	}

	rate := input.APY.Div(hundred).Div(twelve)
	balance := input.Balance.Round(2)
	deposit := input.MonthlyDeposit.Round(2)

	projection := Projection{
		StartingBalance: balance,
		APY:             input.APY,
		MonthlyDeposit:  deposit,
		Months:          months,
		TotalInterest:   decimal.Zero,
		TotalDeposits:   decimal.Zero,
		Schedule:        make([]ProjectionMonth, 0, months),
	}
	for month := 1; month <= months; month++ {
		interest := balance.Mul(rate).Round(2)
		balance = balance.Add(interest).Add(deposit)
		projection.TotalInterest = projection.TotalInterest.Add(interest)
		projection.TotalDeposits = projection.TotalDeposits.Add(deposit)
		projection.Schedule = append(projection.Schedule, ProjectionMonth{
			Month:    month,
			Deposit:  deposit,
			Interest: interest,
			Balance:  balance,
		})
	}
	projection.FinalBalance = balance
	return projection, nil
}

// MonthlyEquivalent converts a schedule's per-run amount to an average
// monthly contribution.
func MonthlyEquivalent(amount decimal.Decimal, repeat autodepositdomain.RepeatType, everyDays int) decimal.Decimal {
	var periodDays int64
	switch repeat {
	case autodepositdomain.RepeatMonthly:
		return amount.Round(2)
	case autodepositdomain.RepeatDaily:
		periodDays = 1
	case autodepositdomain.RepeatWeekly:
		periodDays = 7
	case autodepositdomain.RepeatBiweekly:
		periodDays = 14
	default:
		periodDays = int64(everyDays)
		if periodDays < 1 {
			periodDays = 1
		}
	}
	return amount.Mul(daysPerMonth).Div(decimal.NewFromInt(periodDays)).Round(2)
}

func Summarize(mainBalance decimal.Decimal, buckets []BucketFigures) Summary {
	summary := Summary{
		MainBalance:    mainBalance,
		TotalSaved:     decimal.Zero,
		TotalTarget:    decimal.Zero,
		Progress:       decimal.Zero,
		AnnualInterest: decimal.Zero,
		BucketCount:    len(buckets),
	}
	for _, bucket := range buckets {
		summary.TotalSaved = summary.TotalSaved.Add(bucket.CurrentAmount)
		summary.TotalTarget = summary.TotalTarget.Add(bucket.TargetAmount)
		if bucket.TargetAmount.IsPositive() && bucket.CurrentAmount.GreaterThanOrEqual(bucket.TargetAmount) {
			summary.CompletedBuckets++
		}
		summary.AnnualInterest = summary.AnnualInterest.Add(bucket.CurrentAmount.Mul(bucket.APY).Div(hundred))
	}
	summary.AnnualInterest = summary.AnnualInterest.Round(2)
	summary.NetWorth = mainBalance.Add(summary.TotalSaved)
	if summary.TotalTarget.IsPositive() {
		progress := summary.TotalSaved.Div(summary.TotalTarget).Mul(hundred)
		if progress.GreaterThan(hundred) {
			progress = hundred
		}
		summary.Progress = progress.Round(1)
	}
	return summary
}
