package bucket

import "errors"

var (
	ErrBucketNotFound = errors.New("bucket not found")
	ErrInvalidBucket  = errors.New("invalid bucket")
)
