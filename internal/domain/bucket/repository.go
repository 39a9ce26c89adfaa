package bucket

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type Repository interface {
	ListBuckets(ctx context.Context, userID string) ([]Bucket, error)
	GetBucket(ctx context.Context, userID, bucketID string) (*Bucket, error)
	CreateBucket(ctx context.Context, bucket *Bucket) error
	UpdateBucket(ctx context.Context, bucket *Bucket) error
	UpdateAmount(ctx context.Context, userID, bucketID string, amount decimal.Decimal, updatedAt time.Time) (bool, error)
	DeleteBucket(ctx context.Context, userID, bucketID string) (bool, error)
}
