package storage

import (
	"context"

	activitydomain "buckety-go/internal/domain/activity"
	syncdomain "buckety-go/internal/domain/sync"
	"buckety-go/internal/localstore"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Messages returned in TransferResult.Error.
const (
	MessageDestinationNotFound = "Destination bucket not found"
	MessageSourceNotFound      = "Source bucket not found"
	MessageBucketNotFound      = "Bucket not found"
	MessageInsufficientFunds   = "Insufficient funds"
	MessageInvalidAmount       = "Amount must be greater than zero"
	MessageSameBucket          = "Cannot transfer to the same bucket"
)

// TransferResult reports validation outcomes. Infrastructure failures are
// returned as errors instead.
type TransferResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func rejected(message string) TransferResult {
	return TransferResult{Success: false, Error: message}
}

type transferRequest struct {
	userID      string
	fromID      string
	toID        string
	amount      decimal.Decimal
	destType    activitydomain.Type
	destTitle   string
	description string
}

// side is one end of a transfer: the main balance or a cached bucket.
type side struct {
	id    string
	label string
	// index into the cached bucket list, -1 for the main balance.
	index int
}

func (s side) isMain() bool {
	return s.index < 0
}

// TransferMoney moves amount between the main balance and buckets, where
// either id may be the main-bucket sentinel. Both sides get an activity
// entry, and the local projection is updated before the call returns.
func (f *Facade) TransferMoney(ctx context.Context, fromID, toID string, amount decimal.Decimal, userID string) (TransferResult, error) {
	return f.transfer(ctx, transferRequest{
		userID:    userID,
		fromID:    fromID,
		toID:      toID,
		amount:    amount,
		destType:  activitydomain.TypeMoneyAdded,
		destTitle: "Money added",
	})
}

func (f *Facade) transfer(ctx context.Context, req transferRequest) (TransferResult, error) {
	amount := req.amount.Round(2)
	if !amount.IsPositive() {
		return rejected(MessageInvalidAmount), nil
	}
	if req.fromID == req.toID {
		return rejected(MessageSameBucket), nil
	}

	unlock := f.locks.lock(req.userID)
	defer unlock()

	f.ensureLoaded(ctx, req.userID)

	buckets, err := f.cache.Buckets(ctx, req.userID)
	if err != nil {
		return TransferResult{}, err
	}
	main, err := f.cache.MainBucket(ctx, req.userID)
	if err != nil {
		return TransferResult{}, err
	}

	from, fromFound := resolveSide(buckets, main, req.fromID)
	to, toFound := resolveSide(buckets, main, req.toID)
	switch {
	case from.isMain() && !toFound:
		return rejected(MessageDestinationNotFound), nil
	case to.isMain() && !fromFound:
		return rejected(MessageSourceNotFound), nil
	case !fromFound || !toFound:
		return rejected(MessageBucketNotFound), nil
	}

	available := main.CurrentAmount
	if !from.isMain() {
		available = buckets[from.index].CurrentAmount
	}
	if amount.GreaterThan(available) {
		f.log.BusinessError("transfer rejected", errInsufficientFunds, "user_id", req.userID, "from", req.fromID, "to", req.toID, "amount", amount.String())
		return rejected(MessageInsufficientFunds), nil
	}

	now := f.now().UTC()
	removed := localstore.CachedActivity{
		ID:          uuid.NewString(),
		Type:        string(activitydomain.TypeMoneyRemoved),
		Title:       "Money removed",
		Amount:      amount,
		From:        from.label,
		To:          to.label,
		Date:        now,
		Description: req.description,
	}
	added := localstore.CachedActivity{
		ID:          uuid.NewString(),
		Type:        string(req.destType),
		Title:       req.destTitle,
		Amount:      amount,
		From:        from.label,
		To:          to.label,
		Date:        now,
		Description: req.description,
	}

	// Activities first, balances are projected from them afterwards.
	if err := f.appendLocalActivity(ctx, req.userID, from, removed); err != nil {
		return TransferResult{}, err
	}
	if err := f.appendLocalActivity(ctx, req.userID, to, added); err != nil {
		return TransferResult{}, err
	}

	if from.isMain() {
		main.CurrentAmount = main.CurrentAmount.Sub(amount)
	} else {
		buckets[from.index].CurrentAmount = buckets[from.index].CurrentAmount.Sub(amount)
	}
	if to.isMain() {
		main.CurrentAmount = main.CurrentAmount.Add(amount)
	} else {
		buckets[to.index].CurrentAmount = buckets[to.index].CurrentAmount.Add(amount)
	}

	if err := f.cache.SaveBuckets(ctx, req.userID, buckets); err != nil {
		return TransferResult{}, err
	}
	if from.isMain() || to.isMain() {
		if err := f.cache.SaveMainBucket(ctx, req.userID, main); err != nil {
			return TransferResult{}, err
		}
	}

	f.enqueue(ctx, req.userID, string(syncdomain.OperationTypeAppendActivity), activityPayload(from.id, removed))
	f.enqueue(ctx, req.userID, string(syncdomain.OperationTypeAppendActivity), activityPayload(to.id, added))
	for _, s := range []side{from, to} {
		if s.isMain() {
			f.enqueue(ctx, req.userID, string(syncdomain.OperationTypeSetMainBalance), syncdomain.SetMainBalancePayload{
				Amount: main.CurrentAmount,
			})
			continue
		}
		f.enqueue(ctx, req.userID, string(syncdomain.OperationTypeSetBucketAmount), syncdomain.SetBucketAmountPayload{
			BucketID: s.id,
			Amount:   buckets[s.index].CurrentAmount,
		})
	}

	f.log.Info("transfer applied", "user_id", req.userID, "from", req.fromID, "to", req.toID, "amount", amount.String())
	return TransferResult{Success: true}, nil
}

func resolveSide(buckets []localstore.CachedBucket, main localstore.CachedMainBucket, id string) (side, bool) {
	if id == activitydomain.MainBucketID {
		label := main.Title
		if label == "" {
			label = activitydomain.MainBucketTitle
		}
		return side{id: id, label: label, index: -1}, true
	}
	for i := range buckets {
		if buckets[i].ID == id {
			return side{id: id, label: buckets[i].Title, index: i}, true
		}
	}
	return side{id: id, index: 0}, false
}

func (f *Facade) appendLocalActivity(ctx context.Context, userID string, s side, activity localstore.CachedActivity) error {
	if s.isMain() {
		return f.cache.AppendMainBucketTransfer(ctx, userID, activity)
	}
	_, err := f.cache.AppendActivity(ctx, userID, s.id, activity)
	return err
}

func activityPayload(bucketID string, activity localstore.CachedActivity) syncdomain.AppendActivityPayload {
	return syncdomain.AppendActivityPayload{
		ClientID:      activity.ID,
		BucketID:      bucketID,
		ActivityType:  activity.Type,
		Title:         activity.Title,
		Amount:        activity.Amount,
		FromSource:    activity.From,
		ToDestination: activity.To,
		Description:   activity.Description,
		Date:          activity.Date,
	}
}
