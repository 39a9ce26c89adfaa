package mainbalance

import "errors"

var (
	ErrMainBalanceNotFound = errors.New("main balance not found")
	ErrNegativeBalance     = errors.New("main balance must not be negative")
)
