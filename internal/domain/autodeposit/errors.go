package autodeposit

import "errors"

var (
	ErrAutoDepositNotFound = errors.New("auto deposit not found")
	ErrInvalidAutoDeposit  = errors.New("invalid auto deposit")
)
