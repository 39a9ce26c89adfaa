package activity

import "errors"

var (
	ErrInvalidActivity = errors.New("invalid activity")
)
