package storage

import (
	"context"
	"fmt"

	syncdomain "buckety-go/internal/domain/sync"
	"buckety-go/internal/outbox"
)

type OperationApplier interface {
	Apply(ctx context.Context, userID string, operation syncdomain.OperationInput) syncdomain.OperationResult
}

// SyncApplier delivers outbox entries through the idempotent sync domain,
// using the entry's operation id as the idempotency key.
type SyncApplier struct {
	operations OperationApplier
}

func NewSyncApplier(operations OperationApplier) *SyncApplier {
	return &SyncApplier{operations: operations}
}

func (a *SyncApplier) Apply(ctx context.Context, entry outbox.Entry) error {
	operation, err := syncdomain.DecodeOperation(entry.OperationID, syncdomain.OperationType(entry.Type), "", entry.Payload)
	if err != nil {
		return outbox.Permanent(err)
	}

	result := a.operations.Apply(ctx, entry.UserID, operation)
	switch result.Status {
	case syncdomain.ResultStatusApplied, syncdomain.ResultStatusDuplicate:
		return nil
	}

	if result.Error == nil {
		return fmt.Errorf("%s failed", entry.Type)
	}
	err = fmt.Errorf("%s: %s", result.Error.Code, result.Error.Message)
	if !result.Error.Retryable {
		return outbox.Permanent(err)
	}
	return err
}
