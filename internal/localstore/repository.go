package localstore

import (
	"context"
	"encoding/json"
	"sort"

	"buckety-go/pkg/logger"
)

// Repository exposes typed reads and writes over a Store. Reads never fail
// on malformed cached JSON: the value is logged and treated as absent.
type Repository struct {
	store Store
	log   logger.Logger
}

func NewRepository(store Store, log logger.Logger) *Repository {
	return &Repository{store: store, log: log.Named("localstore")}
}

func (r *Repository) Buckets(ctx context.Context, userID string) ([]CachedBucket, error) {
	var items []CachedBucket
	found, err := r.readJSON(ctx, userID, BucketsKey(userID), &items)
	if err != nil {
		return nil, err
	}
	if !found || items == nil {
		return make([]CachedBucket, 0), nil
	}
	return items, nil
}

func (r *Repository) SaveBuckets(ctx context.Context, userID string, buckets []CachedBucket) error {
	return r.writeJSON(ctx, userID, BucketsKey(userID), buckets)
}

// FindBucket returns the cached bucket and its index in the list.
func (r *Repository) FindBucket(ctx context.Context, userID, bucketID string) ([]CachedBucket, int, error) {
	buckets, err := r.Buckets(ctx, userID)
	if err != nil {
		return nil, -1, err
	}
	for i := range buckets {
		if buckets[i].ID == bucketID {
			return buckets, i, nil
		}
	}
	return buckets, -1, nil
}

func (r *Repository) MainBucket(ctx context.Context, userID string) (CachedMainBucket, error) {
	main, _, err := r.LookupMainBucket(ctx, userID)
	return main, err
}

// LookupMainBucket is MainBucket plus whether a usable value was cached.
func (r *Repository) LookupMainBucket(ctx context.Context, userID string) (CachedMainBucket, bool, error) {
	var main CachedMainBucket
	found, err := r.readJSON(ctx, userID, MainBucketKey(userID), &main)
	if err != nil {
		return CachedMainBucket{}, false, err
	}
	if !found {
		return DefaultMainBucket(), false, nil
	}
	if main.Title == "" {
		main.Title = DefaultMainBucket().Title
	}
	return main, true, nil
}

func (r *Repository) SaveMainBucket(ctx context.Context, userID string, main CachedMainBucket) error {
	return r.writeJSON(ctx, userID, MainBucketKey(userID), main)
}

func (r *Repository) Activities(ctx context.Context, userID, bucketID string) ([]CachedActivity, error) {
	var items []CachedActivity
	found, err := r.readJSON(ctx, userID, ActivitiesKey(bucketID), &items)
	if err != nil {
		return nil, err
	}
	if !found || items == nil {
		return make([]CachedActivity, 0), nil
	}
	return items, nil
}

func (r *Repository) SaveActivities(ctx context.Context, userID, bucketID string, items []CachedActivity) error {
	sortActivities(items)
	return r.writeJSON(ctx, userID, ActivitiesKey(bucketID), items)
}

// AppendActivity adds the activity unless one with the same id is cached.
// The list is kept newest first.
func (r *Repository) AppendActivity(ctx context.Context, userID, bucketID string, activity CachedActivity) (bool, error) {
	items, err := r.Activities(ctx, userID, bucketID)
	if err != nil {
		return false, err
	}
	for _, item := range items {
		if item.ID == activity.ID {
			return false, nil
		}
	}
	items = append(items, activity)
	return true, r.SaveActivities(ctx, userID, bucketID, items)
}

func (r *Repository) MainBucketTransfers(ctx context.Context, userID string) ([]CachedActivity, error) {
	var items []CachedActivity
	found, err := r.readJSON(ctx, userID, MainBucketTransfersKey, &items)
	if err != nil {
		return nil, err
	}
	if !found || items == nil {
		return make([]CachedActivity, 0), nil
	}
	return items, nil
}

func (r *Repository) AppendMainBucketTransfer(ctx context.Context, userID string, activity CachedActivity) error {
	items, err := r.MainBucketTransfers(ctx, userID)
	if err != nil {
		return err
	}
	for _, item := range items {
		if item.ID == activity.ID {
			return nil
		}
	}
	items = append(items, activity)
	sortActivities(items)
	return r.writeJSON(ctx, userID, MainBucketTransfersKey, items)
}

func (r *Repository) SaveMainBucketTransfers(ctx context.Context, userID string, items []CachedActivity) error {
	sortActivities(items)
	return r.writeJSON(ctx, userID, MainBucketTransfersKey, items)
}

func (r *Repository) AutoDeposits(ctx context.Context, userID, bucketID string) ([]CachedAutoDeposit, error) {
	var items []CachedAutoDeposit
	found, err := r.readJSON(ctx, userID, AutoDepositsKey(bucketID), &items)
	if err != nil {
		return nil, err
	}
	if !found || items == nil {
		return make([]CachedAutoDeposit, 0), nil
	}
	return items, nil
}

func (r *Repository) SaveAutoDeposits(ctx context.Context, userID, bucketID string, items []CachedAutoDeposit) error {
	return r.writeJSON(ctx, userID, AutoDepositsKey(bucketID), items)
}

// PutAutoDeposit replaces the cached record with the same id or appends it.
// An active record cancels the other active ones on the bucket.
func (r *Repository) PutAutoDeposit(ctx context.Context, userID string, deposit CachedAutoDeposit) error {
	items, err := r.AutoDeposits(ctx, userID, deposit.BucketID)
	if err != nil {
		return err
	}
	replaced := false
	for i := range items {
		if items[i].ID == deposit.ID {
			items[i] = deposit
			replaced = true
			continue
		}
		if deposit.Status == "active" && items[i].Status == "active" {
			items[i].Status = "cancelled"
		}
	}
	if !replaced {
		items = append(items, deposit)
	}
	return r.SaveAutoDeposits(ctx, userID, deposit.BucketID, items)
}

// DeleteBucketData drops the per-bucket caches.
func (r *Repository) DeleteBucketData(ctx context.Context, userID, bucketID string) error {
	if err := r.store.Delete(ctx, userID, ActivitiesKey(bucketID)); err != nil {
		return err
	}
	return r.store.Delete(ctx, userID, AutoDepositsKey(bucketID))
}

func (r *Repository) Raw(ctx context.Context, userID, key string) ([]byte, bool, error) {
	if !ValidKey(key) {
		return nil, false, ErrInvalidKey
	}
	return r.store.Get(ctx, userID, key)
}

func (r *Repository) SetRaw(ctx context.Context, userID, key string, value []byte) error {
	if !ValidKey(key) {
		return ErrInvalidKey
	}
	return r.store.Set(ctx, userID, key, value)
}

func (r *Repository) DeleteRaw(ctx context.Context, userID, key string) error {
	if !ValidKey(key) {
		return ErrInvalidKey
	}
	return r.store.Delete(ctx, userID, key)
}

func (r *Repository) Keys(ctx context.Context, userID string) ([]string, error) {
	return r.store.Keys(ctx, userID)
}

// PurgeForeignKeys removes legacy global keys and keys namespaced to a
// different user from userID's profile. It returns the removed keys.
func (r *Repository) PurgeForeignKeys(ctx context.Context, userID string) ([]string, error) {
	keys, err := r.store.Keys(ctx, userID)
	if err != nil {
		return nil, err
	}
	removed := make([]string, 0)
	for _, key := range keys {
		owner, scoped := OwnerOf(key)
		if !IsLegacyKey(key) && (!scoped || owner == userID) {
			continue
		}
		if err := r.store.Delete(ctx, userID, key); err != nil {
			return removed, err
		}
		removed = append(removed, key)
	}
	return removed, nil
}

func (r *Repository) readJSON(ctx context.Context, userID, key string, target any) (bool, error) {
	raw, ok, err := r.store.Get(ctx, userID, key)
	if err != nil {
		return false, err
	}
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return false, nil
	}
	if err := json.Unmarshal(raw, target); err != nil {
		r.log.Warn("cached value is malformed, ignoring", "user_id", userID, "key", key, "error", err)
		return false, nil
	}
	return true, nil
}

func (r *Repository) writeJSON(ctx context.Context, userID, key string, value any) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.store.Set(ctx, userID, key, encoded)
}

func sortActivities(items []CachedActivity) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Date.After(items[j].Date)
	})
}
