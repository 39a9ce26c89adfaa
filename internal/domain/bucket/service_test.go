package bucket

import (
	"context"
	"errors"
	"testing"
	"time"

	activitydomain "buckety-go/internal/domain/activity"
	"buckety-go/pkg/logger"
	"github.com/shopspring/decimal"
)

type fakeBucketRepo struct {
	buckets map[string]*Bucket
}

func newFakeBucketRepo() *fakeBucketRepo {
	return &fakeBucketRepo{buckets: make(map[string]*Bucket)}
}

func (r *fakeBucketRepo) ListBuckets(_ context.Context, userID string) ([]Bucket, error) {
	items := make([]Bucket, 0)
	for _, bucket := range r.buckets {
		if bucket.UserID == userID {
			items = append(items, *bucket)
		}
	}
	return items, nil
}

func (r *fakeBucketRepo) GetBucket(_ context.Context, userID, bucketID string) (*Bucket, error) {
	bucket, ok := r.buckets[bucketID]
	if !ok || bucket.UserID != userID {
		return nil, ErrBucketNotFound
	}
	copied := *bucket
	return &copied, nil
}

func (r *fakeBucketRepo) CreateBucket(_ context.Context, bucket *Bucket) error {
	copied := *bucket
	r.buckets[bucket.ID] = &copied
	return nil
}

func (r *fakeBucketRepo) UpdateBucket(_ context.Context, bucket *Bucket) error {
	copied := *bucket
	r.buckets[bucket.ID] = &copied
	return nil
}

func (r *fakeBucketRepo) UpdateAmount(_ context.Context, userID, bucketID string, amount decimal.Decimal, _ time.Time) (bool, error) {
	bucket, ok := r.buckets[bucketID]
	if !ok || bucket.UserID != userID {
		return false, nil
	}
	bucket.CurrentAmount = amount
	return true, nil
}

func (r *fakeBucketRepo) DeleteBucket(_ context.Context, userID, bucketID string) (bool, error) {
	bucket, ok := r.buckets[bucketID]
	if !ok || bucket.UserID != userID {
		return false, nil
	}
	delete(r.buckets, bucketID)
	return true, nil
}

type fakeActivityRecorder struct {
	inputs []activitydomain.CreateActivityInput
	err    error
}

func (f *fakeActivityRecorder) CreateActivity(_ context.Context, input activitydomain.CreateActivityInput) (*activitydomain.Activity, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.inputs = append(f.inputs, input)
	return &activitydomain.Activity{ClientID: input.ClientID, BucketID: input.BucketID, ActivityType: input.Type}, nil
}

func TestCreateBucketRecordsCreatedActivity(t *testing.T) {
	repo := newFakeBucketRepo()
	activities := &fakeActivityRecorder{}
	svc := NewService(repo, activities, logger.NewDiscard())

	bucket, err := svc.CreateBucket(context.Background(), CreateBucketInput{
		UserID:          "user-1",
		Title:           "  Trip ",
		TargetAmount:    decimal.NewFromInt(1000),
		BackgroundColor: "#ffaa00",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if bucket.Title != "Trip" {
		t.Fatalf("expected trimmed title, got %q", bucket.Title)
	}
	if !bucket.CurrentAmount.IsZero() {
		t.Fatalf("expected empty bucket, got %s", bucket.CurrentAmount)
	}
	if len(activities.inputs) != 1 {
		t.Fatalf("expected one activity, got %d", len(activities.inputs))
	}
	recorded := activities.inputs[0]
	if recorded.Type != activitydomain.TypeBucketCreated {
		t.Fatalf("expected bucket_created, got %s", recorded.Type)
	}
	if recorded.ClientID != activitydomain.BucketCreatedClientID(bucket.ID) {
		t.Fatalf("unexpected client id %q", recorded.ClientID)
	}
}

func TestCreateBucketKeepsBucketWhenActivityFails(t *testing.T) {
	repo := newFakeBucketRepo()
	svc := NewService(repo, &fakeActivityRecorder{err: errors.New("remote down")}, logger.NewDiscard())

	bucket, err := svc.CreateBucket(context.Background(), CreateBucketInput{
		UserID:       "user-1",
		Title:        "Car",
		TargetAmount: decimal.NewFromInt(5000),
	})
	if err != nil {
		t.Fatalf("expected bucket creation to succeed, got %v", err)
	}
	if _, ok := repo.buckets[bucket.ID]; !ok {
		t.Fatal("expected bucket row to exist")
	}
}

func TestCreateBucketValidation(t *testing.T) {
	svc := NewService(newFakeBucketRepo(), &fakeActivityRecorder{}, logger.NewDiscard())

	cases := []CreateBucketInput{
		{UserID: "user-1", Title: " ", TargetAmount: decimal.NewFromInt(10)},
		{UserID: "user-1", Title: "Trip", TargetAmount: decimal.Zero},
		{UserID: "user-1", Title: "Trip", TargetAmount: decimal.NewFromInt(10), APY: decimal.NewFromInt(-1)},
	}
	for _, input := range cases {
		if _, err := svc.CreateBucket(context.Background(), input); !errors.Is(err, ErrInvalidBucket) {
			t.Fatalf("expected ErrInvalidBucket for %+v, got %v", input, err)
		}
	}
}

func TestUpdateAmountMissingBucket(t *testing.T) {
	svc := NewService(newFakeBucketRepo(), &fakeActivityRecorder{}, logger.NewDiscard())

	err := svc.UpdateAmount(context.Background(), "user-1", "missing", decimal.NewFromInt(5))
	if !errors.Is(err, ErrBucketNotFound) {
		t.Fatalf("expected ErrBucketNotFound, got %v", err)
	}
}

func TestUpdateBucketPatchesOnlyProvidedFields(t *testing.T) {
	repo := newFakeBucketRepo()
	svc := NewService(repo, &fakeActivityRecorder{}, logger.NewDiscard())
	ctx := context.Background()

	bucket, err := svc.CreateBucket(ctx, CreateBucketInput{
		UserID:          "user-1",
		Title:           "Trip",
		TargetAmount:    decimal.NewFromInt(1000),
		BackgroundColor: "#111111",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	target := decimal.NewFromInt(1500)
	updated, err := svc.UpdateBucket(ctx, UpdateBucketInput{ID: bucket.ID, UserID: "user-1", TargetAmount: &target})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if !updated.TargetAmount.Equal(target) {
		t.Fatalf("expected target 1500, got %s", updated.TargetAmount)
	}
	if updated.Title != "Trip" || updated.BackgroundColor != "#111111" {
		t.Fatalf("expected untouched fields, got %+v", updated)
	}
}
