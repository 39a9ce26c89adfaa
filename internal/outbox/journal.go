package outbox

import (
	"context"
	"sort"
	"sync"
	"time"
)

type Journal interface {
	Append(ctx context.Context, entry Entry) error
	// Pending returns pending entries ordered by id, only the user's when
	// userID is set.
	Pending(ctx context.Context, userID string, limit int) ([]Entry, error)
	MarkDone(ctx context.Context, id string) error
	MarkRetry(ctx context.Context, id string, attempts int, next time.Time, lastError string) error
	MarkDead(ctx context.Context, id string, attempts int, lastError string) error
	CountPending(ctx context.Context, userID string) (int, error)
}

type MemoryJournal struct {
	mu      sync.Mutex
	entries map[string]Entry
}

func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{entries: make(map[string]Entry)}
}

func (j *MemoryJournal) Append(_ context.Context, entry Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries[entry.ID] = entry
	return nil
}

func (j *MemoryJournal) Pending(_ context.Context, userID string, limit int) ([]Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	items := make([]Entry, 0)
	for _, entry := range j.entries {
		if entry.State == StatePending && (userID == "" || entry.UserID == userID) {
			items = append(items, entry)
		}
	}
	sort.Slice(items, func(a, b int) bool { return items[a].ID < items[b].ID })
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (j *MemoryJournal) MarkDone(_ context.Context, id string) error {
	return j.update(id, func(entry *Entry) {
		entry.State = StateDone
		entry.LastError = ""
	})
}

func (j *MemoryJournal) MarkRetry(_ context.Context, id string, attempts int, next time.Time, lastError string) error {
	return j.update(id, func(entry *Entry) {
		entry.Attempts = attempts
		entry.NextAttemptAt = next
		entry.LastError = lastError
	})
}

func (j *MemoryJournal) MarkDead(_ context.Context, id string, attempts int, lastError string) error {
	return j.update(id, func(entry *Entry) {
		entry.State = StateDead
		entry.Attempts = attempts
		entry.LastError = lastError
	})
}

func (j *MemoryJournal) CountPending(_ context.Context, userID string) (int, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	count := 0
	for _, entry := range j.entries {
		if entry.State == StatePending && (userID == "" || entry.UserID == userID) {
			count++
		}
	}
	return count, nil
}

// Entries returns every entry regardless of state, ordered by id.
func (j *MemoryJournal) Entries() []Entry {
	j.mu.Lock()
	defer j.mu.Unlock()

	items := make([]Entry, 0, len(j.entries))
	for _, entry := range j.entries {
		items = append(items, entry)
	}
	sort.Slice(items, func(a, b int) bool { return items[a].ID < items[b].ID })
	return items
}

func (j *MemoryJournal) update(id string, fn func(entry *Entry)) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	entry, ok := j.entries[id]
	if !ok {
		return nil
	}
	fn(&entry)
	j.entries[id] = entry
	return nil
}
