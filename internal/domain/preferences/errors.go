package preferences

import "errors"

var (
	ErrPreferencesNotFound = errors.New("preferences not found")
	ErrInvalidTheme        = errors.New("invalid theme")
)
