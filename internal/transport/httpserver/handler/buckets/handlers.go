package buckets

import (
	"context"

	activitydomain "buckety-go/internal/domain/activity"
	bucketdomain "buckety-go/internal/domain/bucket"
	reconciledomain "buckety-go/internal/domain/reconcile"
	"buckety-go/internal/localstore"
	"buckety-go/internal/outbox"
	"buckety-go/internal/storage"
	"buckety-go/pkg/logger"
	"github.com/shopspring/decimal"
)

// Storage is the local-first projection the bucket endpoints read and
// mutate.
type Storage interface {
	LoadSnapshot(ctx context.Context, userID string) (storage.Snapshot, error)
	Hydrate(ctx context.Context, userID string) (storage.Snapshot, error)
	CreateBucket(ctx context.Context, userID string, req storage.CreateBucketRequest) (*localstore.CachedBucket, error)
	CreateBucketWithRetry(ctx context.Context, userID string, req storage.CreateBucketRequest) (*localstore.CachedBucket, error)
	UpdateBucket(ctx context.Context, input bucketdomain.UpdateBucketInput) (*localstore.CachedBucket, error)
	DeleteBucket(ctx context.Context, userID, bucketID string) error
	ListActivities(ctx context.Context, userID, bucketID string) ([]localstore.CachedActivity, error)
	ListAutoDeposits(ctx context.Context, userID, bucketID string) ([]localstore.CachedAutoDeposit, error)
	TransferMoney(ctx context.Context, fromID, toID string, amount decimal.Decimal, userID string) (storage.TransferResult, error)
}

type RemoteWrites interface {
	Enqueue(ctx context.Context, userID, opType string, payload any) (outbox.Entry, error)
}

// History reads the remote activity log.
type History interface {
	ListActivities(ctx context.Context, userID, bucketID string) ([]activitydomain.Activity, error)
}

type Reconciler interface {
	Reconcile(ctx context.Context, userID string) (reconciledomain.Report, error)
}

type Handlers struct {
	Storage   Storage
	Writes    RemoteWrites
	History   History
	Reconcile Reconciler
	log       logger.Logger
}

func New(store Storage, writes RemoteWrites, history History, reconciler Reconciler, log logger.Logger) *Handlers {
	return &Handlers{
		Storage:   store,
		Writes:    writes,
		History:   history,
		Reconcile: reconciler,
		log:       log,
	}
}
