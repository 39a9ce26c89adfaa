package insights

import "github.com/shopspring/decimal"

const (
	DefaultProjectionMonths = 12
	MaxProjectionMonths     = 120
)

type ProjectionInput struct {
	Balance        decimal.Decimal
	APY            decimal.Decimal
	MonthlyDeposit decimal.Decimal
	Months         int
}

type ProjectionMonth struct {
	Month    int             `json:"month"`
	Deposit  decimal.Decimal `json:"deposit"`
	Interest decimal.Decimal `json:"interest"`
	Balance  decimal.Decimal `json:"balance"`
}

type Projection struct {
	StartingBalance decimal.Decimal   `json:"startingBalance"`
	APY             decimal.Decimal   `json:"apy"`
	MonthlyDeposit  decimal.Decimal   `json:"monthlyDeposit"`
	Months          int               `json:"months"`
	TotalInterest   decimal.Decimal   `json:"totalInterest"`
	TotalDeposits   decimal.Decimal   `json:"totalDeposits"`
	FinalBalance    decimal.Decimal   `json:"finalBalance"`
	Schedule        []ProjectionMonth `json:"schedule"`
}

type BucketFigures struct {
	CurrentAmount decimal.Decimal
	TargetAmount  decimal.Decimal
	APY           decimal.Decimal
}

type Summary struct {
	MainBalance      decimal.Decimal `json:"mainBalance"`
	TotalSaved       decimal.Decimal `json:"totalSaved"`
	TotalTarget      decimal.Decimal `json:"totalTarget"`
	NetWorth         decimal.Decimal `json:"netWorth"`
	Progress         decimal.Decimal `json:"progress"`
	BucketCount      int             `json:"bucketCount"`
	CompletedBuckets int             `json:"completedBuckets"`
	// AnnualInterest is what the buckets would earn over a year at their APY.
	AnnualInterest decimal.Decimal `json:"annualInterest"`
}
