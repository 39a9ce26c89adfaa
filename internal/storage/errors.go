package storage

import "errors"

var errInsufficientFunds = errors.New("insufficient funds")
