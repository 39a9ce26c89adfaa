package insights

import (
	"errors"
	"testing"

	autodepositdomain "buckety-go/internal/domain/autodeposit"
	"github.com/shopspring/decimal"
)

func TestProjectCompoundsMonthly(t *testing.T) {
	projection, err := Project(ProjectionInput{
		Balance: decimal.NewFromInt(1200),
		APY:     decimal.NewFromInt(12),
		Months:  2,
	})
	if err != nil {
		t.Fatalf("project failed: %v", err)
	}
	// 1% a month: 12.00 then 12.12.
	if !projection.Schedule[0].Interest.Equal(decimal.RequireFromString("12")) {
		t.Fatalf("unexpected first month %+v", projection.Schedule[0])
	}
	if !projection.FinalBalance.Equal(decimal.RequireFromString("1224.12")) {
		t.Fatalf("expected 1224.12, got %s", projection.FinalBalance)
	}
	if !projection.TotalInterest.Equal(decimal.RequireFromString("24.12")) {
		t.Fatalf("expected 24.12 interest, got %s", projection.TotalInterest)
	}
}

func TestProjectDefaultsAndLimits(t *testing.T) {
	projection, err := Project(ProjectionInput{Balance: decimal.NewFromInt(10)})
	if err != nil {
		t.Fatalf("project failed: %v", err)
	}
	if projection.Months != DefaultProjectionMonths || len(projection.Schedule) != DefaultProjectionMonths {
		t.Fatalf("expected default horizon, got %d", projection.Months)
	}
	if !projection.FinalBalance.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("zero apy should keep balance, got %s", projection.FinalBalance)
	}

	if _, err := Project(ProjectionInput{Months: MaxProjectionMonths + 1}); !errors.Is(err, ErrInvalidProjection) {
		t.Fatalf("expected ErrInvalidProjection, got %v", err)
	}
	if _, err := Project(ProjectionInput{APY: decimal.NewFromInt(-1)}); !errors.Is(err, ErrInvalidProjection) {
		t.Fatalf("expected ErrInvalidProjection for negative apy, got %v", err)
	}
}

func TestProjectWithDeposits(t *testing.T) {
	projection, err := Project(ProjectionInput{
		MonthlyDeposit: decimal.NewFromInt(50),
		Months:         3,
	})
	if err != nil {
		t.Fatalf("project failed: %v", err)
	}
	if !projection.FinalBalance.Equal(decimal.NewFromInt(150)) || !projection.TotalDeposits.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("unexpected projection %+v", projection)
	}
}

func TestMonthlyEquivalent(t *testing.T) {
	amount := decimal.NewFromInt(10)
	cases := map[autodepositdomain.RepeatType]string{
		autodepositdomain.RepeatMonthly:  "10",
		autodepositdomain.RepeatWeekly:   "43.45",
		autodepositdomain.RepeatBiweekly: "21.73",
		autodepositdomain.RepeatDaily:    "304.17",
	}
	for repeat, want := range cases {
		got := MonthlyEquivalent(amount, repeat, 0)
		if !got.Equal(decimal.RequireFromString(want)) {
			t.Fatalf("%s: expected %s, got %s", repeat, want, got)
		}
	}
	if got := MonthlyEquivalent(amount, autodepositdomain.RepeatCustom, 10); !got.Equal(decimal.RequireFromString("30.42")) {
		t.Fatalf("custom: expected 30.42, got %s", got)
	}
}

func TestSummarize(t *testing.T) {
	summary := Summarize(decimal.NewFromInt(1100), []BucketFigures{
		{CurrentAmount: decimal.NewFromInt(100), TargetAmount: decimal.NewFromInt(1000), APY: decimal.NewFromInt(4)},
		{CurrentAmount: decimal.NewFromInt(500), TargetAmount: decimal.NewFromInt(500)},
	})
	if summary.BucketCount != 2 || summary.CompletedBuckets != 1 {
		t.Fatalf("unexpected counts %+v", summary)
	}
	if !summary.NetWorth.Equal(decimal.NewFromInt(1700)) {
		t.Fatalf("expected net worth 1700, got %s", summary.NetWorth)
	}
	if !summary.Progress.Equal(decimal.RequireFromString("40")) {
		t.Fatalf("expected progress 40, got %s", summary.Progress)
	}
	if !summary.AnnualInterest.Equal(decimal.NewFromInt(4)) {
		t.Fatalf("expected annual interest 4, got %s", summary.AnnualInterest)
	}
}
