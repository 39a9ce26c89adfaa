package insights

import "errors"

var ErrInvalidProjection = errors.New("invalid projection")
