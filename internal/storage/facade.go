// Package storage is the façade the HTTP layer talks to. Reads and writes
// hit the per-user local cache immediately; remote writes are journaled in
// the outbox and delivered by its worker.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	activitydomain "buckety-go/internal/domain/activity"
	autodepositdomain "buckety-go/internal/domain/autodeposit"
	bucketdomain "buckety-go/internal/domain/bucket"
	mainbalancedomain "buckety-go/internal/domain/mainbalance"
	"buckety-go/internal/localstore"
	"buckety-go/internal/outbox"
	"buckety-go/pkg/logger"
	"github.com/shopspring/decimal"
)

type BucketService interface {
	ListBuckets(ctx context.Context, userID string) ([]bucketdomain.Bucket, error)
	CreateBucket(ctx context.Context, input bucketdomain.CreateBucketInput) (*bucketdomain.Bucket, error)
	UpdateBucket(ctx context.Context, input bucketdomain.UpdateBucketInput) (*bucketdomain.Bucket, error)
}

type MainBalanceService interface {
	GetMainBucket(ctx context.Context, userID string) (*mainbalancedomain.MainBalance, error)
}

type ActivityService interface {
	ListActivities(ctx context.Context, userID, bucketID string) ([]activitydomain.Activity, error)
}

type AutoDepositService interface {
	Prepare(input autodepositdomain.CreateAutoDepositInput) (*autodepositdomain.AutoDeposit, error)
	SaveAutoDeposit(ctx context.Context, deposit *autodepositdomain.AutoDeposit) error
	GetAutoDeposit(ctx context.Context, userID, id string) (*autodepositdomain.AutoDeposit, error)
	Cancel(ctx context.Context, userID, id string) error
	ListForUser(ctx context.Context, userID string) ([]autodepositdomain.AutoDeposit, error)
}

type Outbox interface {
	Enqueue(ctx context.Context, userID, opType string, payload any) (outbox.Entry, error)
	FlushUser(ctx context.Context, userID string) error
	Pending(ctx context.Context, userID string) (int, error)
}

type Options struct {
	MainBalanceSeed          decimal.Decimal
	AutoDepositCreateTimeout time.Duration
	BucketCreateRetries      int
	BucketCreateRetryDelay   time.Duration
}

type Facade struct {
	cache        *localstore.Repository
	outbox       Outbox
	buckets      BucketService
	mainBalance  MainBalanceService
	activities   ActivityService
	autoDeposits AutoDepositService
	opts         Options
	locks        *userLocks
	log          logger.Logger
	now          func() time.Time
	sleep        func(ctx context.Context, d time.Duration) error
}

func NewFacade(
	cache *localstore.Repository,
	queue Outbox,
	buckets BucketService,
	mainBalance MainBalanceService,
	activities ActivityService,
	autoDeposits AutoDepositService,
	opts Options,
	log logger.Logger,
) *Facade {
	if opts.MainBalanceSeed.IsZero() {
		opts.MainBalanceSeed = decimal.NewFromInt(1200)
	}
	if opts.AutoDepositCreateTimeout <= 0 {
		opts.AutoDepositCreateTimeout = 5 * time.Second
	}
	if opts.BucketCreateRetries <= 0 {
		opts.BucketCreateRetries = 3
	}
	if opts.BucketCreateRetryDelay <= 0 {
		opts.BucketCreateRetryDelay = time.Second
	}
	return &Facade{
		cache:        cache,
		outbox:       queue,
		buckets:      buckets,
		mainBalance:  mainBalance,
		activities:   activities,
		autoDeposits: autoDeposits,
		opts:         opts,
		locks:        newUserLocks(),
		log:          log.Named("storage"),
		now:          time.Now,
		sleep:        sleepContext,
	}
}

func (f *Facade) GetLocalBuckets(ctx context.Context, userID string) ([]localstore.CachedBucket, error) {
	return f.cache.Buckets(ctx, userID)
}

func (f *Facade) GetLocalMainBucket(ctx context.Context, userID string) (localstore.CachedMainBucket, error) {
	return f.cache.MainBucket(ctx, userID)
}

type CreateBucketRequest struct {
	Title           string
	TargetAmount    decimal.Decimal
	BackgroundColor string
	APY             decimal.Decimal
}

// CreateBucket writes the remote row first. The local mirror and its
// bucket_created activity are only written once the remote write succeeded.
func (f *Facade) CreateBucket(ctx context.Context, userID string, req CreateBucketRequest) (*localstore.CachedBucket, error) {
	created, err := f.buckets.CreateBucket(ctx, bucketdomain.CreateBucketInput{
		UserID:          userID,
		Title:           req.Title,
		TargetAmount:    req.TargetAmount,
		BackgroundColor: req.BackgroundColor,
		APY:             req.APY,
	})
	if err != nil {
		if !errors.Is(err, bucketdomain.ErrInvalidBucket) {
			f.log.InternalError("create bucket failed", err, "user_id", userID)
		}
		return nil, err
	}

	unlock := f.locks.lock(userID)
	defer unlock()

	cached := cachedBucket(*created)
	buckets, err := f.cache.Buckets(ctx, userID)
	if err != nil {
		return nil, err
	}
	buckets = append(buckets, cached)
	if err := f.cache.SaveBuckets(ctx, userID, buckets); err != nil {
		return nil, err
	}

	seed := localstore.CachedActivity{
		ID:    activitydomain.BucketCreatedClientID(created.ID),
		Type:  string(activitydomain.TypeBucketCreated),
		Title: "Bucket created",
		To:    created.Title,
		Date:  created.CreatedAt,
	}
	if seed.Date.IsZero() {
		seed.Date = f.now().UTC()
	}
	if _, err := f.cache.AppendActivity(ctx, userID, created.ID, seed); err != nil {
		f.log.InternalError("seed bucket activity cache failed", err, "user_id", userID, "bucket_id", created.ID)
	}
	return &cached, nil
}

// CreateBucketWithRetry retries remote failures with a fixed delay.
// Validation errors are returned immediately.
func (f *Facade) CreateBucketWithRetry(ctx context.Context, userID string, req CreateBucketRequest) (*localstore.CachedBucket, error) {
	var lastErr error
	for attempt := 1; attempt <= f.opts.BucketCreateRetries; attempt++ {
		bucket, err := f.CreateBucket(ctx, userID, req)
		if err == nil {
			return bucket, nil
		}
		if errors.Is(err, bucketdomain.ErrInvalidBucket) {
			return nil, err
		}
		lastErr = err
		f.log.Warn("bucket creation attempt failed", "user_id", userID, "attempt", attempt, "error", err)
		if attempt == f.opts.BucketCreateRetries {
			break
		}
		if err := f.sleep(ctx, f.opts.BucketCreateRetryDelay); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("create bucket after %d attempts: %w", f.opts.BucketCreateRetries, lastErr)
}

func (f *Facade) UpdateBucket(ctx context.Context, input bucketdomain.UpdateBucketInput) (*localstore.CachedBucket, error) {
	updated, err := f.buckets.UpdateBucket(ctx, input)
	if err != nil {
		return nil, err
	}

	unlock := f.locks.lock(input.UserID)
	defer unlock()

	cached := cachedBucket(*updated)
	buckets, idx, err := f.cache.FindBucket(ctx, input.UserID, updated.ID)
	if err != nil {
		return nil, err
	}
	if idx >= 0 {
		// The cached amount may be ahead of the remote one.
		cached.CurrentAmount = buckets[idx].CurrentAmount
		buckets[idx] = cached
	} else {
		buckets = append(buckets, cached)
	}
	if err := f.cache.SaveBuckets(ctx, input.UserID, buckets); err != nil {
		return nil, err
	}
	return &cached, nil
}

// DeleteBucket removes the bucket and its per-bucket caches from the local
// projection only. Remote activity history is kept.
func (f *Facade) DeleteBucket(ctx context.Context, userID, bucketID string) error {
	unlock := f.locks.lock(userID)
	defer unlock()

	buckets, idx, err := f.cache.FindBucket(ctx, userID, bucketID)
	if err != nil {
		return err
	}
	if idx >= 0 {
		buckets = append(buckets[:idx], buckets[idx+1:]...)
		if err := f.cache.SaveBuckets(ctx, userID, buckets); err != nil {
			return err
		}
	}
	return f.cache.DeleteBucketData(ctx, userID, bucketID)
}

// ListActivities returns the cached log of a bucket, or of the main bucket
// when bucketID is the main-bucket sentinel.
func (f *Facade) ListActivities(ctx context.Context, userID, bucketID string) ([]localstore.CachedActivity, error) {
	if bucketID == activitydomain.MainBucketID {
		return f.cache.MainBucketTransfers(ctx, userID)
	}
	return f.cache.Activities(ctx, userID, bucketID)
}

func (f *Facade) ListAutoDeposits(ctx context.Context, userID, bucketID string) ([]localstore.CachedAutoDeposit, error) {
	return f.cache.AutoDeposits(ctx, userID, bucketID)
}

func (f *Facade) enqueue(ctx context.Context, userID string, opType string, payload any) {
	if _, err := f.outbox.Enqueue(ctx, userID, opType, payload); err != nil {
		f.log.InternalError("enqueue remote write failed", err, "user_id", userID, "operation_type", opType)
	}
}

func cachedBucket(bucket bucketdomain.Bucket) localstore.CachedBucket {
	return localstore.CachedBucket{
		ID:              bucket.ID,
		Title:           bucket.Title,
		CurrentAmount:   bucket.CurrentAmount,
		TargetAmount:    bucket.TargetAmount,
		BackgroundColor: bucket.BackgroundColor,
		APY:             bucket.APY,
		CreatedAt:       bucket.CreatedAt,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// SetLocalMainBalance overwrites the cached main balance amount.
func (f *Facade) SetLocalMainBalance(ctx context.Context, userID string, amount decimal.Decimal) error {
	unlock := f.locks.lock(userID)
	defer unlock()

	main, err := f.cache.MainBucket(ctx, userID)
	if err != nil {
		return err
	}
	main.CurrentAmount = amount
	if main.Title == "" {
		main.Title = activitydomain.MainBucketTitle
	}
	return f.cache.SaveMainBucket(ctx, userID, main)
}

// PurgeForeignKeys drops legacy and other users' keys from the profile.
func (f *Facade) PurgeForeignKeys(ctx context.Context, userID string) ([]string, error) {
	unlock := f.locks.lock(userID)
	defer unlock()
	return f.cache.PurgeForeignKeys(ctx, userID)
}
