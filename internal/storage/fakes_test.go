package storage

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	activitydomain "buckety-go/internal/domain/activity"
	autodepositdomain "buckety-go/internal/domain/autodeposit"
	bucketdomain "buckety-go/internal/domain/bucket"
	mainbalancedomain "buckety-go/internal/domain/mainbalance"
	"buckety-go/internal/localstore"
	"buckety-go/internal/outbox"
	"buckety-go/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const testUser = "00000000-0000-4000-8000-000000000001"

type harness struct {
	facade  *Facade
	remote  *fakeRemote
	applier *recordingApplier
	worker  *outbox.Worker
	store   *localstore.MemoryStore
	cache   *localstore.Repository
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := logger.NewDiscard()
	store := localstore.NewMemoryStore()
	cache := localstore.NewRepository(store, log)
	remote := newFakeRemote()
	applier := &recordingApplier{}
	worker := outbox.NewWorker(outbox.NewMemoryJournal(), applier, outbox.Options{
		PollInterval:   time.Hour,
		MaxAttempts:    3,
		RetryBaseDelay: time.Millisecond,
	}, log)

	facade := NewFacade(cache, worker, remote, remote, remote, remote, Options{
		MainBalanceSeed:          decimal.NewFromInt(1200),
		AutoDepositCreateTimeout: 20 * time.Millisecond,
		BucketCreateRetries:      3,
		BucketCreateRetryDelay:   time.Second,
	}, log)
	facade.sleep = func(context.Context, time.Duration) error { return nil }

	return &harness{
		facade:  facade,
		remote:  remote,
		applier: applier,
		worker:  worker,
		store:   store,
		cache:   cache,
	}
}

type recordingApplier struct {
	mu        sync.Mutex
	delivered []outbox.Entry
	err       error
	// failUser makes every delivery of that user fail.
	failUser string
}

func (a *recordingApplier) Apply(_ context.Context, entry outbox.Entry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	if a.failUser != "" && entry.UserID == a.failUser {
		return errors.New("remote unavailable")
	}
	a.delivered = append(a.delivered, entry)
	return nil
}

func (a *recordingApplier) types() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	items := make([]string, 0, len(a.delivered))
	for _, entry := range a.delivered {
		items = append(items, entry.Type)
	}
	return items
}

func (a *recordingApplier) payload(t *testing.T, index int, target any) {
	t.Helper()
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := json.Unmarshal(a.delivered[index].Payload, target); err != nil {
		t.Fatalf("decode payload %d: %v", index, err)
	}
}

// fakeRemote stands in for every remote domain service the façade uses.
type fakeRemote struct {
	mu             sync.Mutex
	buckets        []bucketdomain.Bucket
	main           *mainbalancedomain.MainBalance
	activities     map[string][]activitydomain.Activity
	deposits       map[string]autodepositdomain.AutoDeposit
	createFailures int
	createCalls    int
	blockDeposits  bool
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		activities: make(map[string][]activitydomain.Activity),
		deposits:   make(map[string]autodepositdomain.AutoDeposit),
	}
}

func (r *fakeRemote) ListBuckets(_ context.Context, userID string) ([]bucketdomain.Bucket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := make([]bucketdomain.Bucket, 0, len(r.buckets))
	for _, bucket := range r.buckets {
		if bucket.UserID == userID {
			items = append(items, bucket)
		}
	}
	return items, nil
}

func (r *fakeRemote) CreateBucket(_ context.Context, input bucketdomain.CreateBucketInput) (*bucketdomain.Bucket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.createCalls++
	if input.Title == "" {
		return nil, bucketdomain.ErrInvalidBucket
	}
	if r.createFailures > 0 {
		r.createFailures--
		return nil, errors.New("remote unavailable")
	}
	bucket := bucketdomain.Bucket{
		ID:              uuid.NewString(),
		UserID:          input.UserID,
		Title:           input.Title,
		TargetAmount:    input.TargetAmount,
		BackgroundColor: input.BackgroundColor,
		APY:             input.APY,
		CreatedAt:       time.Now().UTC(),
	}
	r.buckets = append(r.buckets, bucket)
	return &bucket, nil
}

func (r *fakeRemote) UpdateBucket(_ context.Context, input bucketdomain.UpdateBucketInput) (*bucketdomain.Bucket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.buckets {
		if r.buckets[i].ID != input.ID {
			continue
		}
		if input.Title != nil {
			r.buckets[i].Title = *input.Title
		}
		if input.TargetAmount != nil {
			r.buckets[i].TargetAmount = *input.TargetAmount
		}
		bucket := r.buckets[i]
		return &bucket, nil
	}
	return nil, bucketdomain.ErrBucketNotFound
}

func (r *fakeRemote) GetMainBucket(_ context.Context, _ string) (*mainbalancedomain.MainBalance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.main == nil {
		return nil, mainbalancedomain.ErrMainBalanceNotFound
	}
	main := *r.main
	return &main, nil
}

func (r *fakeRemote) ListActivities(_ context.Context, _ string, bucketID string) ([]activitydomain.Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]activitydomain.Activity(nil), r.activities[bucketID]...), nil
}

func (r *fakeRemote) Prepare(input autodepositdomain.CreateAutoDepositInput) (*autodepositdomain.AutoDeposit, error) {
	return autodepositdomain.NewService(nil).Prepare(input)
}

func (r *fakeRemote) SaveAutoDeposit(ctx context.Context, deposit *autodepositdomain.AutoDeposit) error {
	r.mu.Lock()
	block := r.blockDeposits
	r.mu.Unlock()
	if block {
		<-ctx.Done()
		return ctx.Err()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.deposits[deposit.ID] = *deposit
	return nil
}

func (r *fakeRemote) GetAutoDeposit(_ context.Context, _ string, id string) (*autodepositdomain.AutoDeposit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	deposit, ok := r.deposits[id]
	if !ok {
		return nil, autodepositdomain.ErrAutoDepositNotFound
	}
	return &deposit, nil
}

func (r *fakeRemote) Cancel(_ context.Context, _ string, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	deposit, ok := r.deposits[id]
	if !ok {
		return autodepositdomain.ErrAutoDepositNotFound
	}
	deposit.Status = autodepositdomain.StatusCancelled
	r.deposits[id] = deposit
	return nil
}

func (r *fakeRemote) ListForUser(_ context.Context, userID string) ([]autodepositdomain.AutoDeposit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := make([]autodepositdomain.AutoDeposit, 0, len(r.deposits))
	for _, deposit := range r.deposits {
		if deposit.UserID == userID {
			items = append(items, deposit)
		}
	}
	return items, nil
}
