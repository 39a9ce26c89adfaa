package storage

import (
	"context"

	activitydomain "buckety-go/internal/domain/activity"
	autodepositdomain "buckety-go/internal/domain/autodeposit"
	bucketdomain "buckety-go/internal/domain/bucket"
	syncdomain "buckety-go/internal/domain/sync"
	"buckety-go/internal/localstore"
)

var _ autodepositdomain.Depositor = (*Facade)(nil)

// CreateAutoDeposit caches the schedule right away and then races the
// remote save against the configured timeout. When the remote save does not
// finish in time the write is queued in the outbox instead.
func (f *Facade) CreateAutoDeposit(ctx context.Context, input autodepositdomain.CreateAutoDepositInput) (localstore.CachedAutoDeposit, error) {
	deposit, err := f.autoDeposits.Prepare(input)
	if err != nil {
		return localstore.CachedAutoDeposit{}, err
	}

	cached := cachedAutoDeposit(*deposit)
	cached.Pending = true
	if err := f.putLocalAutoDeposit(ctx, input.UserID, cached, true); err != nil {
		return localstore.CachedAutoDeposit{}, err
	}

	remoteCtx, cancel := context.WithTimeout(ctx, f.opts.AutoDepositCreateTimeout)
	err = f.autoDeposits.SaveAutoDeposit(remoteCtx, deposit)
	cancel()
	if err != nil {
		f.log.Warn("auto deposit remote save did not complete, queueing", "user_id", input.UserID, "auto_deposit_id", deposit.ID, "error", err)
		f.enqueue(ctx, input.UserID, string(syncdomain.OperationTypeSaveAutoDeposit), autoDepositPayload(*deposit))
		return cached, nil
	}

	cached.Pending = false
	if err := f.putLocalAutoDeposit(ctx, input.UserID, cached, false); err != nil {
		return localstore.CachedAutoDeposit{}, err
	}
	return cached, nil
}

func (f *Facade) CancelAutoDeposit(ctx context.Context, userID, id string) error {
	deposit, err := f.autoDeposits.GetAutoDeposit(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := f.autoDeposits.Cancel(ctx, userID, id); err != nil {
		return err
	}

	deposit.Status = autodepositdomain.StatusCancelled
	return f.putLocalAutoDeposit(ctx, userID, cachedAutoDeposit(*deposit), false)
}

func (f *Facade) putLocalAutoDeposit(ctx context.Context, userID string, deposit localstore.CachedAutoDeposit, requireBucket bool) error {
	unlock := f.locks.lock(userID)
	defer unlock()

	if requireBucket {
		f.ensureLoaded(ctx, userID)
		_, idx, err := f.cache.FindBucket(ctx, userID, deposit.BucketID)
		if err != nil {
			return err
		}
		if idx < 0 {
			return bucketdomain.ErrBucketNotFound
		}
	}
	return f.cache.PutAutoDeposit(ctx, userID, deposit)
}

// SyncUser refreshes the user's projection before scheduled deposits run.
func (f *Facade) SyncUser(ctx context.Context, userID string) error {
	_, err := f.Hydrate(ctx, userID)
	return err
}

func (f *Facade) Bucket(ctx context.Context, userID, bucketID string) (autodepositdomain.BucketSnapshot, bool, error) {
	buckets, idx, err := f.cache.FindBucket(ctx, userID, bucketID)
	if err != nil || idx < 0 {
		return autodepositdomain.BucketSnapshot{}, false, err
	}
	bucket := buckets[idx]
	return autodepositdomain.BucketSnapshot{
		ID:              bucket.ID,
		Title:           bucket.Title,
		BackgroundColor: bucket.BackgroundColor,
		CurrentAmount:   bucket.CurrentAmount,
		TargetAmount:    bucket.TargetAmount,
	}, true, nil
}

// DepositFromMain runs a scheduled deposit through the transfer path. The
// destination activity is typed auto_deposit.
func (f *Facade) DepositFromMain(ctx context.Context, userID string, deposit autodepositdomain.AutoDeposit) (bool, string, error) {
	result, err := f.transfer(ctx, transferRequest{
		userID:      userID,
		fromID:      activitydomain.MainBucketID,
		toID:        deposit.BucketID,
		amount:      deposit.Amount,
		destType:    activitydomain.TypeAutoDeposit,
		destTitle:   "Auto deposit",
		description: string(deposit.RepeatType) + " auto deposit",
	})
	if err != nil {
		return false, "", err
	}
	return result.Success, result.Error, nil
}

// Settle delivers the user's queued remote writes.
func (f *Facade) Settle(ctx context.Context, userID string) error {
	return f.outbox.FlushUser(ctx, userID)
}

func autoDepositPayload(deposit autodepositdomain.AutoDeposit) syncdomain.SaveAutoDepositPayload {
	return syncdomain.SaveAutoDepositPayload{
		ID:                deposit.ID,
		BucketID:          deposit.BucketID,
		Amount:            deposit.Amount,
		RepeatType:        string(deposit.RepeatType),
		RepeatEveryDays:   deposit.RepeatEveryDays,
		AnchorDay:         deposit.AnchorDay,
		EndType:           string(deposit.EndType),
		EndDate:           deposit.EndDate,
		Status:            string(deposit.Status),
		NextExecutionDate: deposit.NextExecutionDate.UTC(),
	}
}
