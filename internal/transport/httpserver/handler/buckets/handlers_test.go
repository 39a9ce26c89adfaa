package buckets

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	activitydomain "buckety-go/internal/domain/activity"
	bucketdomain "buckety-go/internal/domain/bucket"
	reconciledomain "buckety-go/internal/domain/reconcile"
	syncdomain "buckety-go/internal/domain/sync"
	"buckety-go/internal/localstore"
	"buckety-go/internal/outbox"
	"buckety-go/internal/storage"
	"buckety-go/internal/transport/httpserver/middleware"
	"buckety-go/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const testUser = "user-1"

type fakeStorage struct {
	snapshot  storage.Snapshot
	transfer  storage.TransferResult
	transfers []string
	deleted   []string
	schedules []localstore.CachedAutoDeposit
	err       error
}

func (f *fakeStorage) LoadSnapshot(context.Context, string) (storage.Snapshot, error) {
	return f.snapshot, f.err
}

func (f *fakeStorage) Hydrate(context.Context, string) (storage.Snapshot, error) {
	return f.snapshot, f.err
}

func (f *fakeStorage) CreateBucket(_ context.Context, _ string, req storage.CreateBucketRequest) (*localstore.CachedBucket, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &localstore.CachedBucket{ID: "new", Title: req.Title, TargetAmount: req.TargetAmount}, nil
}

func (f *fakeStorage) CreateBucketWithRetry(ctx context.Context, userID string, req storage.CreateBucketRequest) (*localstore.CachedBucket, error) {
	return f.CreateBucket(ctx, userID, req)
}

func (f *fakeStorage) UpdateBucket(context.Context, bucketdomain.UpdateBucketInput) (*localstore.CachedBucket, error) {
	return nil, bucketdomain.ErrBucketNotFound
}

func (f *fakeStorage) DeleteBucket(_ context.Context, _ string, bucketID string) error {
	f.deleted = append(f.deleted, bucketID)
	return f.err
}

func (f *fakeStorage) ListActivities(context.Context, string, string) ([]localstore.CachedActivity, error) {
	return []localstore.CachedActivity{}, f.err
}

func (f *fakeStorage) ListAutoDeposits(context.Context, string, string) ([]localstore.CachedAutoDeposit, error) {
	return f.schedules, f.err
}

func (f *fakeStorage) TransferMoney(_ context.Context, fromID, toID string, amount decimal.Decimal, _ string) (storage.TransferResult, error) {
	f.transfers = append(f.transfers, fromID+">"+toID+":"+amount.StringFixed(2))
	return f.transfer, f.err
}

type fakeWrites struct {
	types    []string
	payloads []any
}

func (f *fakeWrites) Enqueue(_ context.Context, _ string, opType string, payload any) (outbox.Entry, error) {
	f.types = append(f.types, opType)
	f.payloads = append(f.payloads, payload)
	return outbox.Entry{}, nil
}

type fakeHistory struct {
	items []activitydomain.Activity
}

func (f *fakeHistory) ListActivities(context.Context, string, string) ([]activitydomain.Activity, error) {
	return f.items, nil
}

type fakeReconciler struct {
	err error
}

func (f *fakeReconciler) Reconcile(context.Context, string) (reconciledomain.Report, error) {
	return reconciledomain.Report{Computed: decimal.RequireFromString("1100")}, f.err
}

func newTestRouter(store *fakeStorage, writes *fakeWrites, history *fakeHistory, reconciler *fakeReconciler) http.Handler {
	h := New(store, writes, history, reconciler, logger.NewDiscard())
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithUserID(req.Context(), testUser)))
		})
	})
	r.Post("/api/transfers", h.Transfer)
	r.Get("/api/buckets/{id}", h.GetBucket)
	r.Delete("/api/buckets/{id}", h.DeleteBucket)
	r.Get("/api/buckets/{id}/projection", h.Projection)
	r.Get("/api/buckets/{id}/activities/export", h.ExportActivities)
	r.Post("/api/main-bucket/reconcile", h.ReconcileMainBucket)
	r.Get("/api/insights/summary", h.InsightsSummary)
	return r
}

func do(t *testing.T, handler http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func tripSnapshot() storage.Snapshot {
	return storage.Snapshot{
		Buckets: []localstore.CachedBucket{{
			ID:            "trip",
			Title:         "Trip",
			CurrentAmount: decimal.RequireFromString("1000"),
			TargetAmount:  decimal.RequireFromString("2000"),
			APY:           decimal.RequireFromString("12"),
		}},
		MainBucket: localstore.CachedMainBucket{CurrentAmount: decimal.RequireFromString("500"), Title: "Main Bucket"},
	}
}

func TestTransferSucceeds(t *testing.T) {
	store := &fakeStorage{transfer: storage.TransferResult{Success: true}}
	router := newTestRouter(store, &fakeWrites{}, &fakeHistory{}, &fakeReconciler{})

	rec := do(t, router, http.MethodPost, "/api/transfers", `{"fromBucketId":"main-bucket","toBucketId":"trip","amount":100}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())
	assert.Equal(t, []string{"main-bucket>trip:100.00"}, store.transfers)
}

func TestTransferRejectionKeepsMessage(t *testing.T) {
	store := &fakeStorage{transfer: storage.TransferResult{Success: false, Error: storage.MessageInsufficientFunds}}
	router := newTestRouter(store, &fakeWrites{}, &fakeHistory{}, &fakeReconciler{})

	rec := do(t, router, http.MethodPost, "/api/transfers", `{"fromBucketId":"trip","toBucketId":"main-bucket","amount":"5000"}`)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"Insufficient funds"}`, rec.Body.String())
}

func TestTransferBadRequests(t *testing.T) {
	store := &fakeStorage{}
	router := newTestRouter(store, &fakeWrites{}, &fakeHistory{}, &fakeReconciler{})

	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodPost, "/api/transfers", `{`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodPost, "/api/transfers", `{"toBucketId":"trip","amount":1}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodPost, "/api/transfers", `{"fromBucketId":"a","toBucketId":"b","amount":1,"extra":true}`).Code)
	assert.Empty(t, store.transfers)
}

func TestTransferInternalError(t *testing.T) {
	store := &fakeStorage{err: errors.New("cache unavailable")}
	router := newTestRouter(store, &fakeWrites{}, &fakeHistory{}, &fakeReconciler{})

	rec := do(t, router, http.MethodPost, "/api/transfers", `{"fromBucketId":"main-bucket","toBucketId":"trip","amount":1}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestTransferRequiresUser(t *testing.T) {
	h := New(&fakeStorage{}, &fakeWrites{}, &fakeHistory{}, &fakeReconciler{}, logger.NewDiscard())
	req := httptest.NewRequest(http.MethodPost, "/api/transfers", strings.NewReader(`{"fromBucketId":"a","toBucketId":"b","amount":1}`))
	rec := httptest.NewRecorder()
	h.Transfer(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetBucketNotFound(t *testing.T) {
	router := newTestRouter(&fakeStorage{snapshot: tripSnapshot()}, &fakeWrites{}, &fakeHistory{}, &fakeReconciler{})

	assert.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/api/buckets/trip", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, "/api/buckets/missing", "").Code)
}

func TestDeleteBucketQueuesRemoteDelete(t *testing.T) {
	store := &fakeStorage{snapshot: tripSnapshot()}
	writes := &fakeWrites{}
	router := newTestRouter(store, writes, &fakeHistory{}, &fakeReconciler{})

	rec := do(t, router, http.MethodDelete, "/api/buckets/trip", "")

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"trip"}, store.deleted)
	require.Equal(t, []string{string(syncdomain.OperationTypeDeleteBucket)}, writes.types)
	assert.Equal(t, syncdomain.DeleteBucketPayload{BucketID: "trip"}, writes.payloads[0])

	rec = do(t, router, http.MethodDelete, "/api/buckets/main-bucket", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProjectionUsesActiveSchedules(t *testing.T) {
	store := &fakeStorage{
		snapshot: tripSnapshot(),
		schedules: []localstore.CachedAutoDeposit{
			{Amount: decimal.RequireFromString("50"), RepeatType: "monthly", Status: "active"},
			{Amount: decimal.RequireFromString("999"), RepeatType: "monthly", Status: "cancelled"},
		},
	}
	router := newTestRouter(store, &fakeWrites{}, &fakeHistory{}, &fakeReconciler{})

	rec := do(t, router, http.MethodGet, "/api/buckets/trip/projection?months=1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		MonthlyDeposit decimal.Decimal `json:"monthlyDeposit"`
		FinalBalance   decimal.Decimal `json:"finalBalance"`
		Schedule       []json.RawMessage
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.MonthlyDeposit.Equal(decimal.RequireFromString("50")))
	// 1000 at 1% a month plus a 50 deposit.
	assert.True(t, body.FinalBalance.Equal(decimal.RequireFromString("1060")), body.FinalBalance.String())
	assert.Len(t, body.Schedule, 1)

	rec = do(t, router, http.MethodGet, "/api/buckets/trip/projection?months=500", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportActivitiesWritesWorkbook(t *testing.T) {
	title := "Deposit"
	history := &fakeHistory{items: []activitydomain.Activity{{
		ActivityType: activitydomain.TypeMoneyAdded,
		Title:        title,
		Amount:       decimal.RequireFromString("25"),
		Date:         time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC),
	}}}
	router := newTestRouter(&fakeStorage{snapshot: tripSnapshot()}, &fakeWrites{}, history, &fakeReconciler{})

	rec := do(t, router, http.MethodGet, "/api/buckets/trip/activities/export", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "Trip_activity_")

	book, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer book.Close()
	rows, err := book.GetRows("Activity")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Deposit", rows[1][2])
}

func TestReconcileMapsUndelivered(t *testing.T) {
	router := newTestRouter(&fakeStorage{}, &fakeWrites{}, &fakeHistory{}, &fakeReconciler{err: outbox.ErrUndelivered})
	assert.Equal(t, http.StatusServiceUnavailable, do(t, router, http.MethodPost, "/api/main-bucket/reconcile", "").Code)

	router = newTestRouter(&fakeStorage{}, &fakeWrites{}, &fakeHistory{}, &fakeReconciler{})
	rec := do(t, router, http.MethodPost, "/api/main-bucket/reconcile", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"computed"`)
}

func TestInsightsSummary(t *testing.T) {
	router := newTestRouter(&fakeStorage{snapshot: tripSnapshot()}, &fakeWrites{}, &fakeHistory{}, &fakeReconciler{})

	rec := do(t, router, http.MethodGet, "/api/insights/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		NetWorth decimal.Decimal `json:"netWorth"`
		Progress decimal.Decimal `json:"progress"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.NetWorth.Equal(decimal.RequireFromString("1500")))
	assert.True(t, body.Progress.Equal(decimal.RequireFromString("50")))
}
