package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"buckety-go/pkg/logger"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

const (
	batchSize       = 100
	maxRetryBackoff = 5 * time.Minute
)

type Applier interface {
	Apply(ctx context.Context, entry Entry) error
}

type Options struct {
	PollInterval   time.Duration
	MaxAttempts    int
	RetryBaseDelay time.Duration
}

type Worker struct {
	journal Journal
	applier Applier
	opts    Options
	log     logger.Logger
	now     func() time.Time

	// drainMu keeps Run and Flush from delivering concurrently.
	drainMu sync.Mutex
	wake    chan struct{}
}

func NewWorker(journal Journal, applier Applier, opts Options, log logger.Logger) *Worker {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 2 * time.Second
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 8
	}
	if opts.RetryBaseDelay <= 0 {
		opts.RetryBaseDelay = time.Second
	}
	return &Worker{
		journal: journal,
		applier: applier,
		opts:    opts,
		log:     log.Named("outbox"),
		now:     time.Now,
		wake:    make(chan struct{}, 1),
	}
}

// Enqueue journals a remote write and wakes the worker.
func (w *Worker) Enqueue(ctx context.Context, userID, opType string, payload any) (Entry, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return Entry{}, fmt.Errorf("encode %s payload: %w", opType, err)
	}
	now := w.now().UTC()
	entry := Entry{
		ID:            ulid.Make().String(),
		UserID:        userID,
		OperationID:   uuid.NewString(),
		Type:          opType,
		Payload:       encoded,
		State:         StatePending,
		NextAttemptAt: now,
		CreatedAt:     now,
	}
	if err := w.journal.Append(ctx, entry); err != nil {
		return Entry{}, err
	}
	w.Notify()
	return entry, nil
}

func (w *Worker) Notify() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.opts.PollInterval)
	defer ticker.Stop()

	w.log.Info("outbox worker started", "poll_interval", w.opts.PollInterval)
	for {
		if _, err := w.drain(ctx, "", false); err != nil && ctx.Err() == nil {
			w.log.InternalError("outbox drain failed", err)
		}

		select {
		case <-ctx.Done():
			w.log.Info("outbox worker stopped")
			return
		case <-ticker.C:
		case <-w.wake:
		}
	}
}

// Flush delivers every pending entry now, ignoring backoff. It returns
// ErrUndelivered when some entries are still pending afterwards.
func (w *Worker) Flush(ctx context.Context) error {
	return w.flush(ctx, "")
}

// FlushUser delivers the user's pending entries now. Other users' entries
// are left to the background loop and never fail the call.
func (w *Worker) FlushUser(ctx context.Context, userID string) error {
	return w.flush(ctx, userID)
}

func (w *Worker) flush(ctx context.Context, userID string) error {
	remaining, err := w.drain(ctx, userID, true)
	if err != nil {
		return err
	}
	if remaining > 0 {
		return fmt.Errorf("%w: %d pending", ErrUndelivered, remaining)
	}
	return nil
}

// Pending reports how many entries of the user are waiting for delivery.
func (w *Worker) Pending(ctx context.Context, userID string) (int, error) {
	return w.journal.CountPending(ctx, userID)
}

// drain delivers pending entries, only the user's when userID is set, and
// returns how many are still pending in that scope.
func (w *Worker) drain(ctx context.Context, userID string, force bool) (int, error) {
	w.drainMu.Lock()
	defer w.drainMu.Unlock()

	for {
		entries, err := w.journal.Pending(ctx, userID, batchSize)
		if err != nil {
			return 0, err
		}
		if len(entries) == 0 {
			return 0, nil
		}

		delivered, remaining, err := w.pass(ctx, entries, force)
		if err != nil {
			return remaining, err
		}
		if delivered == 0 || len(entries) < batchSize {
			return w.journal.CountPending(ctx, userID)
		}
	}
}

// pass tries each entry once. A user whose entry is waiting or failing is
// blocked for the rest of the pass so their writes stay in order.
func (w *Worker) pass(ctx context.Context, entries []Entry, force bool) (int, int, error) {
	now := w.now().UTC()
	blocked := make(map[string]bool)
	delivered := 0
	remaining := 0

	for _, entry := range entries {
		if ctx.Err() != nil {
			return delivered, remaining, ctx.Err()
		}
		if blocked[entry.UserID] {
			remaining++
			continue
		}
		if !force && entry.NextAttemptAt.After(now) {
			blocked[entry.UserID] = true
			remaining++
			continue
		}

		log := w.log.With("entry_id", entry.ID, "user_id", entry.UserID, "type", entry.Type)
		applyErr := w.applier.Apply(ctx, entry)
		if applyErr == nil {
			if err := w.journal.MarkDone(ctx, entry.ID); err != nil {
				return delivered, remaining, err
			}
			delivered++
			log.Debug("outbox entry delivered", "attempts", entry.Attempts+1)
			continue
		}

		attempts := entry.Attempts + 1
		if IsPermanent(applyErr) || attempts >= w.opts.MaxAttempts {
			if err := w.journal.MarkDead(ctx, entry.ID, attempts, applyErr.Error()); err != nil {
				return delivered, remaining, err
			}
			log.Critical("outbox entry dropped", "attempts", attempts, "error", applyErr)
			continue
		}

		next := now.Add(w.backoff(attempts))
		if err := w.journal.MarkRetry(ctx, entry.ID, attempts, next, applyErr.Error()); err != nil {
			return delivered, remaining, err
		}
		log.Warn("outbox entry failed, will retry", "attempts", attempts, "next_attempt_at", next, "error", applyErr)
		blocked[entry.UserID] = true
		remaining++
	}
	return delivered, remaining, nil
}

func (w *Worker) backoff(attempts int) time.Duration {
	delay := w.opts.RetryBaseDelay
	for i := 1; i < attempts; i++ {
		delay *= 2
		if delay >= maxRetryBackoff {
			return maxRetryBackoff
		}
	}
	return delay
}
