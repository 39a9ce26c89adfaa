package autodeposit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

type fakeAutoDepositRepo struct {
	items map[string]AutoDeposit
	// failUpdate makes the n-th UpdateSchedule call (1-based) fail.
	failUpdate  int
	updateCalls int
}

func newFakeAutoDepositRepo(items ...AutoDeposit) *fakeAutoDepositRepo {
	repo := &fakeAutoDepositRepo{items: make(map[string]AutoDeposit)}
	for _, item := range items {
		repo.items[item.ID] = item
	}
	return repo
}

func (r *fakeAutoDepositRepo) ListByBucket(_ context.Context, userID, bucketID string) ([]AutoDeposit, error) {
	items := make([]AutoDeposit, 0)
	for _, item := range r.items {
		if item.UserID == userID && item.BucketID == bucketID {
			items = append(items, item)
		}
	}
	return items, nil
}

func (r *fakeAutoDepositRepo) ListByUser(_ context.Context, userID string) ([]AutoDeposit, error) {
	items := make([]AutoDeposit, 0)
	for _, item := range r.items {
		if item.UserID == userID {
			items = append(items, item)
		}
	}
	return items, nil
}

func (r *fakeAutoDepositRepo) GetAutoDeposit(_ context.Context, userID, id string) (*AutoDeposit, error) {
	item, ok := r.items[id]
	if !ok || item.UserID != userID {
		return nil, ErrAutoDepositNotFound
	}
	return &item, nil
}

func (r *fakeAutoDepositRepo) SaveAutoDeposit(_ context.Context, deposit *AutoDeposit) error {
	r.items[deposit.ID] = *deposit
	return nil
}

func (r *fakeAutoDepositRepo) CancelOthers(_ context.Context, userID, bucketID, keepID string, at time.Time) (int64, error) {
	var count int64
	for id, item := range r.items {
		if id == keepID || item.UserID != userID || item.BucketID != bucketID || item.Status != StatusActive {
			continue
		}
		item.Status = StatusCancelled
		item.UpdatedAt = at
		r.items[id] = item
		count++
	}
	return count, nil
}

func (r *fakeAutoDepositRepo) UpdateStatus(_ context.Context, userID, id string, status Status, at time.Time) (bool, error) {
	item, ok := r.items[id]
	if !ok || item.UserID != userID {
		return false, nil
	}
	item.Status = status
	item.UpdatedAt = at
	r.items[id] = item
	return true, nil
}

func (r *fakeAutoDepositRepo) UpdateSchedule(_ context.Context, id string, next time.Time, status Status, at time.Time) error {
	r.updateCalls++
	if r.updateCalls == r.failUpdate {
		return errors.New("connection reset")
	}
	item, ok := r.items[id]
	if !ok {
		return ErrAutoDepositNotFound
	}
	item.NextExecutionDate = next
	item.Status = status
	item.UpdatedAt = at
	r.items[id] = item
	return nil
}

func (r *fakeAutoDepositRepo) ListDue(_ context.Context, now time.Time) ([]AutoDeposit, error) {
	items := make([]AutoDeposit, 0)
	for _, item := range r.items {
		if item.Status == StatusActive && !item.NextExecutionDate.After(now) {
			items = append(items, item)
		}
	}
	return items, nil
}

func (r *fakeAutoDepositRepo) ListActive(_ context.Context) ([]AutoDeposit, error) {
	items := make([]AutoDeposit, 0)
	for _, item := range r.items {
		if item.Status == StatusActive {
			items = append(items, item)
		}
	}
	return items, nil
}

func fixedNow() time.Time {
	return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
}

func TestNextExecutionRepeatTypes(t *testing.T) {
	from := time.Date(2026, 1, 31, 9, 0, 0, 0, time.UTC)
	cases := []struct {
		repeat RepeatType
		every  int
		want   time.Time
	}{
		{RepeatDaily, 0, time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)},
		{RepeatWeekly, 0, time.Date(2026, 2, 7, 9, 0, 0, 0, time.UTC)},
		{RepeatBiweekly, 0, time.Date(2026, 2, 14, 9, 0, 0, 0, time.UTC)},
		{RepeatMonthly, 0, time.Date(2026, 2, 28, 9, 0, 0, 0, time.UTC)},
		{RepeatCustom, 3, time.Date(2026, 2, 3, 9, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		if got := NextExecution(from, tc.repeat, tc.every, 0); !got.Equal(tc.want) {
			t.Fatalf("%s: expected %s, got %s", tc.repeat, tc.want, got)
		}
	}
}

func TestMonthlyScheduleKeepsAnchorDay(t *testing.T) {
	at := time.Date(2026, 1, 31, 9, 0, 0, 0, time.UTC)
	want := []time.Time{
		time.Date(2026, 2, 28, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 31, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 4, 30, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 5, 31, 9, 0, 0, 0, time.UTC),
	}
	for _, expected := range want {
		at = NextExecution(at, RepeatMonthly, 0, 31)
		if !at.Equal(expected) {
			t.Fatalf("expected %s, got %s", expected, at)
		}
	}

	dec := NextExecution(time.Date(2026, 12, 15, 9, 0, 0, 0, time.UTC), RepeatMonthly, 0, 15)
	if !dec.Equal(time.Date(2027, 1, 15, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected year rollover, got %s", dec)
	}
}

func TestPrepareMonthlyAnchorsToStartDay(t *testing.T) {
	svc := NewService(newFakeAutoDepositRepo())
	svc.now = fixedNow
	start := time.Date(2026, 1, 31, 8, 0, 0, 0, time.UTC)

	deposit, err := svc.Prepare(CreateAutoDepositInput{
		UserID: "u", BucketID: "b", Amount: decimal.NewFromInt(50),
		RepeatType: RepeatMonthly, EndType: EndBucketCompleted, StartDate: &start,
	})
	if err != nil {
		t.Fatalf("prepare failed: %v", err)
	}
	if deposit.AnchorDay == nil || *deposit.AnchorDay != 31 {
		t.Fatalf("expected anchor day 31, got %v", deposit.AnchorDay)
	}

	next := NextAfter(deposit.NextExecutionDate, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), deposit.RepeatType, deposit.everyDays(), deposit.anchorDay())
	if !next.Equal(time.Date(2026, 3, 31, 8, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected the 31st after a short month, got %s", next)
	}
}

func TestNextAfterSkipsMissedPeriods(t *testing.T) {
	from := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	next := NextAfter(from, fixedNow(), RepeatDaily, 0, 0)
	if !next.Equal(time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected next execution %s", next)
	}
}

func TestDueScanIncludesPastDueActiveAndExcludesCancelled(t *testing.T) {
	past := fixedNow().Add(-48 * time.Hour)
	repo := newFakeAutoDepositRepo(
		AutoDeposit{ID: "active-past", UserID: "u", BucketID: "b1", Status: StatusActive, NextExecutionDate: past},
		AutoDeposit{ID: "cancelled-past", UserID: "u", BucketID: "b2", Status: StatusCancelled, NextExecutionDate: past},
		AutoDeposit{ID: "active-future", UserID: "u", BucketID: "b3", Status: StatusActive, NextExecutionDate: fixedNow().Add(time.Hour)},
	)
	svc := NewService(repo)

	due, err := svc.ListDue(context.Background(), fixedNow())
	if err != nil {
		t.Fatalf("list due failed: %v", err)
	}
	if len(due) != 1 || due[0].ID != "active-past" {
		t.Fatalf("unexpected due set %+v", due)
	}
}

func TestSaveActiveCancelsOtherSchedulesOnBucket(t *testing.T) {
	repo := newFakeAutoDepositRepo(AutoDeposit{ID: "old", UserID: "u", BucketID: "b1", Status: StatusActive})
	svc := NewService(repo)
	svc.now = fixedNow

	created, err := svc.CreateAutoDeposit(context.Background(), CreateAutoDepositInput{
		UserID:     "u",
		BucketID:   "b1",
		Amount:     decimal.NewFromInt(50),
		RepeatType: RepeatWeekly,
		EndType:    EndBucketCompleted,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if repo.items["old"].Status != StatusCancelled {
		t.Fatalf("expected previous schedule cancelled, got %s", repo.items["old"].Status)
	}
	if repo.items[created.ID].Status != StatusActive {
		t.Fatalf("expected new schedule active")
	}
	if !created.NextExecutionDate.Equal(fixedNow().AddDate(0, 0, 7)) {
		t.Fatalf("unexpected first execution %s", created.NextExecutionDate)
	}
}

func TestPrepareValidation(t *testing.T) {
	svc := NewService(newFakeAutoDepositRepo())
	svc.now = fixedNow
	past := fixedNow().Add(-time.Hour)

	cases := []CreateAutoDepositInput{
		{UserID: "u", BucketID: "b", Amount: decimal.Zero, RepeatType: RepeatDaily, EndType: EndBucketCompleted},
		{UserID: "u", BucketID: "b", Amount: decimal.NewFromInt(1), RepeatType: "yearly", EndType: EndBucketCompleted},
		{UserID: "u", BucketID: "b", Amount: decimal.NewFromInt(1), RepeatType: RepeatCustom, EndType: EndBucketCompleted},
		{UserID: "u", BucketID: "b", Amount: decimal.NewFromInt(1), RepeatType: RepeatDaily, EndType: EndSpecificDate},
		{UserID: "u", BucketID: "b", Amount: decimal.NewFromInt(1), RepeatType: RepeatDaily, EndType: EndSpecificDate, EndDate: &past},
	}
	for _, input := range cases {
		if _, err := svc.Prepare(input); !errors.Is(err, ErrInvalidAutoDeposit) {
			t.Fatalf("expected ErrInvalidAutoDeposit for %+v, got %v", input, err)
		}
	}
}

func TestCancelUnknownSchedule(t *testing.T) {
	svc := NewService(newFakeAutoDepositRepo())
	if err := svc.Cancel(context.Background(), "u", "missing"); !errors.Is(err, ErrAutoDepositNotFound) {
		t.Fatalf("expected ErrAutoDepositNotFound, got %v", err)
	}
}
