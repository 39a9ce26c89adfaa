package autodeposit

import (
	"context"
	"errors"
	"testing"
	"time"

	notificationdomain "buckety-go/internal/domain/notification"
	"buckety-go/pkg/logger"
	"github.com/shopspring/decimal"
)

type fakeDepositor struct {
	main       map[string]decimal.Decimal
	buckets    map[string]*BucketSnapshot
	failUser   string
	depositErr error
	settled    int
}

func (d *fakeDepositor) SyncUser(_ context.Context, userID string) error {
	if userID == d.failUser {
		return errors.New("remote unavailable")
	}
	return nil
}

func (d *fakeDepositor) Bucket(_ context.Context, _ string, bucketID string) (BucketSnapshot, bool, error) {
	bucket, ok := d.buckets[bucketID]
	if !ok {
		return BucketSnapshot{}, false, nil
	}
	return *bucket, true, nil
}

func (d *fakeDepositor) DepositFromMain(_ context.Context, userID string, deposit AutoDeposit) (bool, string, error) {
	if d.depositErr != nil {
		return false, "", d.depositErr
	}
	if deposit.Amount.GreaterThan(d.main[userID]) {
		return false, "Insufficient funds", nil
	}
	d.main[userID] = d.main[userID].Sub(deposit.Amount)
	bucket := d.buckets[deposit.BucketID]
	bucket.CurrentAmount = bucket.CurrentAmount.Add(deposit.Amount)
	return true, "", nil
}

func (d *fakeDepositor) Settle(context.Context, string) error {
	d.settled++
	return nil
}

type fakeNotifier struct {
	inputs []notificationdomain.CreateNotificationInput
}

func (n *fakeNotifier) CreateNotification(_ context.Context, input notificationdomain.CreateNotificationInput) (*notificationdomain.Notification, error) {
	n.inputs = append(n.inputs, input)
	return &notificationdomain.Notification{}, nil
}

func newTestExecutor(repo *fakeAutoDepositRepo, depositor *fakeDepositor, notifier *fakeNotifier) *Executor {
	svc := NewService(repo)
	svc.now = fixedNow
	executor := NewExecutor(svc, depositor, notifier, logger.NewDiscard())
	executor.now = fixedNow
	return executor
}

func TestRunDueExecutesAndAdvances(t *testing.T) {
	repo := newFakeAutoDepositRepo(AutoDeposit{
		ID: "ad-1", UserID: "u1", BucketID: "trip", Amount: decimal.NewFromInt(100),
		RepeatType: RepeatWeekly, EndType: EndBucketCompleted, Status: StatusActive,
		NextExecutionDate: fixedNow().Add(-time.Hour),
	})
	depositor := &fakeDepositor{
		main: map[string]decimal.Decimal{"u1": decimal.NewFromInt(1200)},
		buckets: map[string]*BucketSnapshot{
			"trip": {ID: "trip", Title: "Trip", BackgroundColor: "#ffaa00", TargetAmount: decimal.NewFromInt(1000)},
		},
	}
	notifier := &fakeNotifier{}

	result, err := newTestExecutor(repo, depositor, notifier).RunDue(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if !result.Success || result.TotalExecuted != 1 || result.UsersProcessed != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
	if !depositor.main["u1"].Equal(decimal.NewFromInt(1100)) {
		t.Fatalf("expected main 1100, got %s", depositor.main["u1"])
	}
	stored := repo.items["ad-1"]
	if stored.Status != StatusActive || !stored.NextExecutionDate.After(fixedNow()) {
		t.Fatalf("expected advanced active schedule, got %+v", stored)
	}
	if len(notifier.inputs) != 1 || notifier.inputs[0].Metadata["bucket_name"] != "Trip" {
		t.Fatalf("expected one notification with bucket metadata, got %+v", notifier.inputs)
	}
	if depositor.settled == 0 {
		t.Fatal("expected queued writes to be settled")
	}
}

func TestRunDueCancelsWhenBucketCompleted(t *testing.T) {
	repo := newFakeAutoDepositRepo(AutoDeposit{
		ID: "ad-1", UserID: "u1", BucketID: "trip", Amount: decimal.NewFromInt(100),
		RepeatType: RepeatDaily, EndType: EndBucketCompleted, Status: StatusActive,
		NextExecutionDate: fixedNow().Add(-time.Hour),
	})
	depositor := &fakeDepositor{
		main: map[string]decimal.Decimal{"u1": decimal.NewFromInt(1200)},
		buckets: map[string]*BucketSnapshot{
			"trip": {ID: "trip", Title: "Trip", CurrentAmount: decimal.NewFromInt(950), TargetAmount: decimal.NewFromInt(1000)},
		},
	}

	if _, err := newTestExecutor(repo, depositor, &fakeNotifier{}).RunDue(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if repo.items["ad-1"].Status != StatusCancelled {
		t.Fatalf("expected schedule cancelled after reaching target, got %s", repo.items["ad-1"].Status)
	}
}

func TestRunDueSkipsOnInsufficientFunds(t *testing.T) {
	due := fixedNow().Add(-time.Hour)
	repo := newFakeAutoDepositRepo(AutoDeposit{
		ID: "ad-1", UserID: "u1", BucketID: "trip", Amount: decimal.NewFromInt(5000),
		RepeatType: RepeatDaily, EndType: EndBucketCompleted, Status: StatusActive,
		NextExecutionDate: due,
	})
	depositor := &fakeDepositor{
		main:    map[string]decimal.Decimal{"u1": decimal.NewFromInt(1200)},
		buckets: map[string]*BucketSnapshot{"trip": {ID: "trip", Title: "Trip", TargetAmount: decimal.NewFromInt(10000)}},
	}

	result, err := newTestExecutor(repo, depositor, &fakeNotifier{}).RunDue(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if result.TotalExecuted != 0 {
		t.Fatalf("expected nothing executed, got %d", result.TotalExecuted)
	}
	if !repo.items["ad-1"].NextExecutionDate.Equal(due) {
		t.Fatal("expected schedule not advanced")
	}
}

func TestRunIsolatesUserFailures(t *testing.T) {
	past := fixedNow().Add(-time.Hour)
	repo := newFakeAutoDepositRepo(
		AutoDeposit{ID: "a", UserID: "u1", BucketID: "b1", Amount: decimal.NewFromInt(10), RepeatType: RepeatDaily, EndType: EndBucketCompleted, Status: StatusActive, NextExecutionDate: past},
		AutoDeposit{ID: "b", UserID: "u2", BucketID: "b2", Amount: decimal.NewFromInt(10), RepeatType: RepeatDaily, EndType: EndBucketCompleted, Status: StatusActive, NextExecutionDate: past},
	)
	depositor := &fakeDepositor{
		main: map[string]decimal.Decimal{"u1": decimal.NewFromInt(100), "u2": decimal.NewFromInt(100)},
		buckets: map[string]*BucketSnapshot{
			"b1": {ID: "b1", Title: "One", TargetAmount: decimal.NewFromInt(1000)},
			"b2": {ID: "b2", Title: "Two", TargetAmount: decimal.NewFromInt(1000)},
		},
		failUser: "u1",
	}

	result, err := newTestExecutor(repo, depositor, &fakeNotifier{}).RunAll(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if result.UsersProcessed != 2 || result.TotalExecuted != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.Results[0].UserID != "u1" || result.Results[0].Success || result.Results[0].Error == "" {
		t.Fatalf("expected u1 failure recorded, got %+v", result.Results[0])
	}
	if !result.Results[1].Success {
		t.Fatalf("expected u2 success, got %+v", result.Results[1])
	}
}

func TestExecuteForUserEndsExpiredSchedule(t *testing.T) {
	end := fixedNow().Add(-24 * time.Hour)
	repo := newFakeAutoDepositRepo(AutoDeposit{
		ID: "ad-1", UserID: "u1", BucketID: "trip", Amount: decimal.NewFromInt(10),
		RepeatType: RepeatDaily, EndType: EndSpecificDate, EndDate: &end, Status: StatusActive,
		NextExecutionDate: fixedNow().Add(-time.Hour),
	})
	depositor := &fakeDepositor{
		main:    map[string]decimal.Decimal{"u1": decimal.NewFromInt(100)},
		buckets: map[string]*BucketSnapshot{"trip": {ID: "trip", Title: "Trip", TargetAmount: decimal.NewFromInt(1000)}},
	}

	summary, err := newTestExecutor(repo, depositor, &fakeNotifier{}).ExecuteForUser(context.Background(), "u1")
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if summary.Executed != 0 || summary.Cancelled != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if repo.items["ad-1"].Status != StatusCancelled {
		t.Fatal("expected schedule cancelled")
	}
}

func TestDepositIsNotRepeatedWhenFinalUpdateFails(t *testing.T) {
	repo := newFakeAutoDepositRepo(AutoDeposit{
		ID: "ad-1", UserID: "u1", BucketID: "trip", Amount: decimal.NewFromInt(100),
		RepeatType: RepeatDaily, EndType: EndBucketCompleted, Status: StatusActive,
		NextExecutionDate: fixedNow().Add(-time.Hour),
	})
	// The claim succeeds, the cancellation after reaching the target fails.
	repo.failUpdate = 2
	trip := &BucketSnapshot{ID: "trip", Title: "Trip", CurrentAmount: decimal.NewFromInt(950), TargetAmount: decimal.NewFromInt(1000)}
	depositor := &fakeDepositor{
		main:    map[string]decimal.Decimal{"u1": decimal.NewFromInt(1200)},
		buckets: map[string]*BucketSnapshot{"trip": trip},
	}
	executor := newTestExecutor(repo, depositor, &fakeNotifier{})

	if _, err := executor.ExecuteForUser(context.Background(), "u1"); err == nil {
		t.Fatal("expected the failed schedule update to surface")
	}
	if !depositor.main["u1"].Equal(decimal.NewFromInt(1100)) {
		t.Fatalf("expected one deposit, main is %s", depositor.main["u1"])
	}

	result, err := executor.RunDue(context.Background())
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if result.TotalExecuted != 0 || !depositor.main["u1"].Equal(decimal.NewFromInt(1100)) {
		t.Fatalf("expected no repeated deposit, got %+v and main %s", result, depositor.main["u1"])
	}
	if !repo.items["ad-1"].NextExecutionDate.After(fixedNow()) {
		t.Fatalf("expected period claimed, got %s", repo.items["ad-1"].NextExecutionDate)
	}
}

func TestFailedDepositReleasesPeriod(t *testing.T) {
	due := fixedNow().Add(-time.Hour)
	repo := newFakeAutoDepositRepo(AutoDeposit{
		ID: "ad-1", UserID: "u1", BucketID: "trip", Amount: decimal.NewFromInt(10),
		RepeatType: RepeatWeekly, EndType: EndBucketCompleted, Status: StatusActive,
		NextExecutionDate: due,
	})
	depositor := &fakeDepositor{
		main:       map[string]decimal.Decimal{"u1": decimal.NewFromInt(100)},
		buckets:    map[string]*BucketSnapshot{"trip": {ID: "trip", Title: "Trip", TargetAmount: decimal.NewFromInt(1000)}},
		depositErr: errors.New("cache unavailable"),
	}

	if _, err := newTestExecutor(repo, depositor, &fakeNotifier{}).ExecuteForUser(context.Background(), "u1"); err == nil {
		t.Fatal("expected deposit error")
	}
	stored := repo.items["ad-1"]
	if !stored.NextExecutionDate.Equal(due) || stored.Status != StatusActive {
		t.Fatalf("expected schedule released for the next run, got %+v", stored)
	}
}
