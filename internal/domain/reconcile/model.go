package reconcile

import "github.com/shopspring/decimal"

type Report struct {
	Computed    decimal.Decimal  `json:"computed"`
	Stored      *decimal.Decimal `json:"stored"`
	Discrepancy decimal.Decimal  `json:"discrepancy"`
	Corrected   bool             `json:"corrected"`
	Created     bool             `json:"created"`
	RemovedKeys []string         `json:"removed_keys"`
}
