// Package outbox is the write-ahead queue for remote writes. Mutations are
// journaled first and delivered by a single worker, in order per user, with
// retries keyed by the entry's operation id.
package outbox

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

type State string

const (
	StatePending State = "pending"
	StateDone    State = "done"
	StateDead    State = "dead"
)

type Entry struct {
	// ID is a ULID, so ordering by ID is ordering by enqueue time.
	ID            string
	UserID        string
	OperationID   string
	Type          string
	Payload       json.RawMessage
	State         State
	Attempts      int
	NextAttemptAt time.Time
	LastError     string
	CreatedAt     time.Time
}

var ErrUndelivered = errors.New("outbox has undelivered entries")

// PermanentError marks a delivery failure that retrying cannot fix.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("permanent: %v", e.Err)
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

func IsPermanent(err error) bool {
	var permanent *PermanentError
	return errors.As(err, &permanent)
}
