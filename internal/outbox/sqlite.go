package outbox

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

type SQLiteJournal struct {
	db *sqlx.DB
}

func NewSQLiteJournal(db *sqlx.DB) *SQLiteJournal {
	return &SQLiteJournal{db: db}
}

type entryRow struct {
	ID            string `db:"id"`
	UserID        string `db:"user_id"`
	OperationID   string `db:"operation_id"`
	OperationType string `db:"operation_type"`
	Payload       []byte `db:"payload"`
	State         string `db:"state"`
	Attempts      int    `db:"attempts"`
	NextAttemptAt int64  `db:"next_attempt_at"`
	LastError     string `db:"last_error"`
	CreatedAt     int64  `db:"created_at"`
}

func (r entryRow) entry() Entry {
	return Entry{
		ID:            r.ID,
		UserID:        r.UserID,
		OperationID:   r.OperationID,
		Type:          r.OperationType,
		Payload:       r.Payload,
		State:         State(r.State),
		Attempts:      r.Attempts,
		NextAttemptAt: time.UnixMilli(r.NextAttemptAt).UTC(),
		LastError:     r.LastError,
		CreatedAt:     time.UnixMilli(r.CreatedAt).UTC(),
	}
}

func (j *SQLiteJournal) Append(ctx context.Context, entry Entry) error {
	row := entryRow{
		ID:            entry.ID,
		UserID:        entry.UserID,
		OperationID:   entry.OperationID,
		OperationType: entry.Type,
		Payload:       entry.Payload,
		State:         string(entry.State),
		Attempts:      entry.Attempts,
		NextAttemptAt: entry.NextAttemptAt.UnixMilli(),
		LastError:     entry.LastError,
		CreatedAt:     entry.CreatedAt.UnixMilli(),
	}
	_, err := j.db.NamedExecContext(ctx, `
		INSERT INTO outbox_entries (id, user_id, operation_id, operation_type, payload, state, attempts, next_attempt_at, last_error, created_at)
		VALUES (:id, :user_id, :operation_id, :operation_type, :payload, :state, :attempts, :next_attempt_at, :last_error, :created_at)
	`, row)
	return err
}

func (j *SQLiteJournal) Pending(ctx context.Context, userID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows := make([]entryRow, 0)
	err := j.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, operation_id, operation_type, payload, state, attempts, next_attempt_at, last_error, created_at
		FROM outbox_entries
		WHERE state = ? AND (? = '' OR user_id = ?)
		ORDER BY id
		LIMIT ?
	`, string(StatePending), userID, userID, limit)
	if err != nil {
		return nil, err
	}
	items := make([]Entry, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.entry())
	}
	return items, nil
}

func (j *SQLiteJournal) MarkDone(ctx context.Context, id string) error {
	_, err := j.db.ExecContext(ctx, `UPDATE outbox_entries SET state = ?, last_error = '' WHERE id = ?`, string(StateDone), id)
	return err
}

func (j *SQLiteJournal) MarkRetry(ctx context.Context, id string, attempts int, next time.Time, lastError string) error {
	_, err := j.db.ExecContext(ctx,
		`UPDATE outbox_entries SET attempts = ?, next_attempt_at = ?, last_error = ? WHERE id = ?`,
		attempts, next.UnixMilli(), lastError, id)
	return err
}

func (j *SQLiteJournal) MarkDead(ctx context.Context, id string, attempts int, lastError string) error {
	_, err := j.db.ExecContext(ctx,
		`UPDATE outbox_entries SET state = ?, attempts = ?, last_error = ? WHERE id = ?`,
		string(StateDead), attempts, lastError, id)
	return err
}

func (j *SQLiteJournal) CountPending(ctx context.Context, userID string) (int, error) {
	var count int
	var err error
	if userID == "" {
		err = j.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM outbox_entries WHERE state = ?`, string(StatePending))
	} else {
		err = j.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM outbox_entries WHERE state = ? AND user_id = ?`, string(StatePending), userID)
	}
	return count, err
}
