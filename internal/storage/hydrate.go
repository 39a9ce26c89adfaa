package storage

import (
	"context"
	"errors"
	"fmt"

	activitydomain "buckety-go/internal/domain/activity"
	autodepositdomain "buckety-go/internal/domain/autodeposit"
	mainbalancedomain "buckety-go/internal/domain/mainbalance"
	syncdomain "buckety-go/internal/domain/sync"
	"buckety-go/internal/localstore"
)

type Snapshot struct {
	Buckets    []localstore.CachedBucket   `json:"buckets"`
	MainBucket localstore.CachedMainBucket `json:"mainBucket"`
}

// Hydrate rebuilds the user's local projection from the remote store.
// Queued writes are delivered first; if any remain undelivered the cached
// state is left as it is and an error is returned.
func (f *Facade) Hydrate(ctx context.Context, userID string) (Snapshot, error) {
	unlock := f.locks.lock(userID)
	defer unlock()
	return f.hydrate(ctx, userID)
}

// LoadSnapshot returns the cached projection, hydrating a profile that was
// never loaded.
func (f *Facade) LoadSnapshot(ctx context.Context, userID string) (Snapshot, error) {
	unlock := f.locks.lock(userID)
	defer unlock()

	f.ensureLoaded(ctx, userID)
	buckets, err := f.cache.Buckets(ctx, userID)
	if err != nil {
		return Snapshot{}, err
	}
	main, err := f.cache.MainBucket(ctx, userID)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Buckets: buckets, MainBucket: main}, nil
}

// ensureLoaded hydrates a profile the first time it is touched. Remote
// failures fall back to whatever is cached.
func (f *Facade) ensureLoaded(ctx context.Context, userID string) {
	_, found, err := f.cache.LookupMainBucket(ctx, userID)
	if err != nil || found {
		return
	}
	if _, err := f.hydrate(ctx, userID); err != nil {
		f.log.Warn("hydrate failed, continuing with cached data", "user_id", userID, "error", err)
	}
}

func (f *Facade) hydrate(ctx context.Context, userID string) (Snapshot, error) {
	pending, err := f.outbox.Pending(ctx, userID)
	if err != nil {
		return Snapshot{}, err
	}
	if pending > 0 {
		if err := f.outbox.FlushUser(ctx, userID); err != nil {
			return Snapshot{}, fmt.Errorf("deliver queued writes: %w", err)
		}
	}

	remoteBuckets, err := f.buckets.ListBuckets(ctx, userID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("list buckets: %w", err)
	}

	main := localstore.CachedMainBucket{Title: activitydomain.MainBucketTitle}
	seeded := false
	balance, err := f.mainBalance.GetMainBucket(ctx, userID)
	switch {
	case err == nil:
		main.CurrentAmount = balance.CurrentAmount
	case errors.Is(err, mainbalancedomain.ErrMainBalanceNotFound):
		main.CurrentAmount = f.opts.MainBalanceSeed
		seeded = true
	default:
		return Snapshot{}, fmt.Errorf("get main balance: %w", err)
	}

	schedules, err := f.autoDeposits.ListForUser(ctx, userID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("list auto deposits: %w", err)
	}
	byBucket := make(map[string][]localstore.CachedAutoDeposit)
	for _, schedule := range schedules {
		byBucket[schedule.BucketID] = append(byBucket[schedule.BucketID], cachedAutoDeposit(schedule))
	}

	previous, err := f.cache.Buckets(ctx, userID)
	if err != nil {
		return Snapshot{}, err
	}

	buckets := make([]localstore.CachedBucket, 0, len(remoteBuckets))
	kept := make(map[string]bool, len(remoteBuckets))
	for _, bucket := range remoteBuckets {
		activities, err := f.activities.ListActivities(ctx, userID, bucket.ID)
		if err != nil {
			return Snapshot{}, fmt.Errorf("list activities of %s: %w", bucket.ID, err)
		}
		if err := f.cache.SaveActivities(ctx, userID, bucket.ID, cachedActivities(activities)); err != nil {
			return Snapshot{}, err
		}
		deposits := byBucket[bucket.ID]
		if deposits == nil {
			deposits = make([]localstore.CachedAutoDeposit, 0)
		}
		if err := f.cache.SaveAutoDeposits(ctx, userID, bucket.ID, deposits); err != nil {
			return Snapshot{}, err
		}
		buckets = append(buckets, cachedBucket(bucket))
		kept[bucket.ID] = true
	}
	for _, bucket := range previous {
		if kept[bucket.ID] {
			continue
		}
		if err := f.cache.DeleteBucketData(ctx, userID, bucket.ID); err != nil {
			return Snapshot{}, err
		}
	}

	transfers, err := f.activities.ListActivities(ctx, userID, activitydomain.MainBucketID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("list main bucket activities: %w", err)
	}
	if err := f.cache.SaveMainBucketTransfers(ctx, userID, cachedActivities(transfers)); err != nil {
		return Snapshot{}, err
	}

	if err := f.cache.SaveBuckets(ctx, userID, buckets); err != nil {
		return Snapshot{}, err
	}
	if err := f.cache.SaveMainBucket(ctx, userID, main); err != nil {
		return Snapshot{}, err
	}
	if seeded {
		f.enqueue(ctx, userID, string(syncdomain.OperationTypeSetMainBalance), syncdomain.SetMainBalancePayload{
			Amount: main.CurrentAmount,
		})
	}

	f.log.Debug("profile hydrated", "user_id", userID, "buckets", len(buckets), "seeded_main", seeded)
	return Snapshot{Buckets: buckets, MainBucket: main}, nil
}

func cachedActivities(items []activitydomain.Activity) []localstore.CachedActivity {
	cached := make([]localstore.CachedActivity, 0, len(items))
	for _, item := range items {
		cached = append(cached, localstore.CachedActivity{
			ID:          item.ClientID,
			Type:        string(item.ActivityType),
			Title:       item.Title,
			Amount:      item.Amount,
			From:        deref(item.FromSource),
			To:          deref(item.ToDestination),
			Date:        item.Date,
			Description: deref(item.Description),
		})
	}
	return cached
}

func cachedAutoDeposit(deposit autodepositdomain.AutoDeposit) localstore.CachedAutoDeposit {
	cached := localstore.CachedAutoDeposit{
		ID:                deposit.ID,
		BucketID:          deposit.BucketID,
		Amount:            deposit.Amount,
		RepeatType:        string(deposit.RepeatType),
		EndType:           string(deposit.EndType),
		EndDate:           deposit.EndDate,
		Status:            string(deposit.Status),
		NextExecutionDate: deposit.NextExecutionDate,
	}
	if deposit.RepeatEveryDays != nil {
		cached.RepeatEveryDays = *deposit.RepeatEveryDays
	}
	return cached
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
