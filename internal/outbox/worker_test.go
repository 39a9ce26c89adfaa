package outbox

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"buckety-go/internal/db"
	"buckety-go/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingApplier struct {
	mu        sync.Mutex
	delivered []Entry
	failures  map[string]error
}

func (a *recordingApplier) Apply(_ context.Context, entry Entry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err, ok := a.failures[entry.Type]; ok {
		return err
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

func newTestWorker(journal Journal, applier Applier) *Worker {
	return NewWorker(journal, applier, Options{
		PollInterval:   10 * time.Millisecond,
		MaxAttempts:    3,
		RetryBaseDelay: time.Minute,
	}, logger.NewDiscard())
}

func TestFlushDeliversInEnqueueOrder(t *testing.T) {
	ctx := context.Background()
	applier := &recordingApplier{}
	worker := newTestWorker(NewMemoryJournal(), applier)

	for _, opType := range []string{"first", "second", "third"} {
		_, err := worker.Enqueue(ctx, "u1", opType, map[string]string{"op": opType})
		require.NoError(t, err)
	}

	require.NoError(t, worker.Flush(ctx))
	assert.Equal(t, []string{"first", "second", "third"}, applier.types())

	pending, err := worker.Pending(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, pending)
}

func TestFailingEntryBlocksOnlyItsUser(t *testing.T) {
	ctx := context.Background()
	journal := NewMemoryJournal()
	applier := &recordingApplier{failures: map[string]error{"broken": errors.New("remote down")}}
	worker := newTestWorker(journal, applier)

	_, err := worker.Enqueue(ctx, "u1", "broken", nil)
	require.NoError(t, err)
	_, err = worker.Enqueue(ctx, "u1", "after-broken", nil)
	require.NoError(t, err)
	_, err = worker.Enqueue(ctx, "u2", "other-user", nil)
	require.NoError(t, err)

	err = worker.Flush(ctx)
	require.ErrorIs(t, err, ErrUndelivered)
	assert.Equal(t, []string{"other-user"}, applier.types())

	entries := journal.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, 1, entries[0].Attempts)
	assert.Equal(t, "remote down", entries[0].LastError)
	assert.Equal(t, StatePending, entries[1].State)
}

func TestFlushUserIgnoresOtherUsersBacklog(t *testing.T) {
	ctx := context.Background()
	journal := NewMemoryJournal()
	applier := &recordingApplier{failures: map[string]error{"broken": errors.New("remote down")}}
	worker := newTestWorker(journal, applier)

	_, err := worker.Enqueue(ctx, "u1", "broken", nil)
	require.NoError(t, err)
	_, err = worker.Enqueue(ctx, "u2", "delivered", nil)
	require.NoError(t, err)

	require.NoError(t, worker.FlushUser(ctx, "u2"))
	assert.Equal(t, []string{"delivered"}, applier.types())
	assert.Zero(t, journal.Entries()[0].Attempts, "other users' entries are not attempted")

	require.ErrorIs(t, worker.FlushUser(ctx, "u1"), ErrUndelivered)
	assert.Equal(t, 1, journal.Entries()[0].Attempts)

	// A later write of the delivered user still settles.
	_, err = worker.Enqueue(ctx, "u2", "delivered-again", nil)
	require.NoError(t, err)
	require.NoError(t, worker.FlushUser(ctx, "u2"))
}

func TestEntryDiesAfterMaxAttempts(t *testing.T) {
	ctx := context.Background()
	journal := NewMemoryJournal()
	applier := &recordingApplier{failures: map[string]error{"broken": errors.New("remote down")}}
	worker := newTestWorker(journal, applier)

	_, err := worker.Enqueue(ctx, "u1", "broken", nil)
	require.NoError(t, err)
	_, err = worker.Enqueue(ctx, "u1", "next", nil)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		require.ErrorIs(t, worker.Flush(ctx), ErrUndelivered)
	}
	require.NoError(t, worker.Flush(ctx))

	entries := journal.Entries()
	assert.Equal(t, StateDead, entries[0].State)
	assert.Equal(t, 3, entries[0].Attempts)
	assert.Equal(t, []string{"next"}, applier.types())
}

func TestPermanentErrorDiesImmediately(t *testing.T) {
	ctx := context.Background()
	journal := NewMemoryJournal()
	applier := &recordingApplier{failures: map[string]error{"bad": Permanent(errors.New("payload mismatch"))}}
	worker := newTestWorker(journal, applier)

	_, err := worker.Enqueue(ctx, "u1", "bad", nil)
	require.NoError(t, err)
	require.NoError(t, worker.Flush(ctx))

	assert.Equal(t, StateDead, journal.Entries()[0].State)
}

func TestRunDeliversAfterNotify(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	applier := &recordingApplier{}
	worker := newTestWorker(NewMemoryJournal(), applier)

	done := make(chan struct{})
	go func() {
		worker.Run(ctx)
		close(done)
	}()

	_, err := worker.Enqueue(context.Background(), "u1", "async", nil)
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return len(applier.types()) == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}

func TestSQLiteJournalKeepsOrderAndState(t *testing.T) {
	ctx := context.Background()
	conn, err := db.NewSQLite(filepath.Join(t.TempDir(), "outbox.db"), logger.NewDiscard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	journal := NewSQLiteJournal(conn)
	applier := &recordingApplier{}
	worker := newTestWorker(journal, applier)

	for _, opType := range []string{"a", "b"} {
		_, err := worker.Enqueue(ctx, "u1", opType, map[string]int{"n": 1})
		require.NoError(t, err)
	}
	pending, err := journal.CountPending(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, pending)

	require.NoError(t, worker.Flush(ctx))
	assert.Equal(t, []string{"a", "b"}, applier.types())
	assert.JSONEq(t, `{"n":1}`, string(applier.delivered[0].Payload))

	pending, err = journal.CountPending(ctx, "")
	require.NoError(t, err)
	assert.Zero(t, pending)

	_, err = worker.Enqueue(ctx, "u1", "c", nil)
	require.NoError(t, err)
	_, err = worker.Enqueue(ctx, "u2", "d", nil)
	require.NoError(t, err)
	entries, err := journal.Pending(ctx, "u2", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "d", entries[0].Type)
	entries, err = journal.Pending(ctx, "", 10)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestBackoffDoublesAndCaps(t *testing.T) {
	worker := NewWorker(NewMemoryJournal(), &recordingApplier{}, Options{RetryBaseDelay: time.Second}, logger.NewDiscard())

	assert.Equal(t, time.Second, worker.backoff(1))
	assert.Equal(t, 4*time.Second, worker.backoff(3))
	assert.Equal(t, maxRetryBackoff, worker.backoff(20))
}
