// Package localstore keeps the disposable per-user projection of remote
// state: bucket lists, main balance snapshots, activity and auto-deposit
// caches, plus keys mirrored from the browser client.
package localstore

import (
	"context"
	"errors"
)

var ErrInvalidKey = errors.New("invalid cache key")

// Store is a key/value store partitioned by profile. One profile holds the
// cache of one user.
type Store interface {
	Get(ctx context.Context, profile, key string) ([]byte, bool, error)
	Set(ctx context.Context, profile, key string, value []byte) error
	Delete(ctx context.Context, profile, key string) error
	Keys(ctx context.Context, profile string) ([]string, error)
}
