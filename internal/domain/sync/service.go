package sync

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	activitydomain "buckety-go/internal/domain/activity"
	autodepositdomain "buckety-go/internal/domain/autodeposit"
	bucketdomain "buckety-go/internal/domain/bucket"
	mainbalancedomain "buckety-go/internal/domain/mainbalance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BucketsService interface {
	UpdateAmount(ctx context.Context, userID, bucketID string, amount decimal.Decimal) error
	DeleteBucket(ctx context.Context, userID, bucketID string) error
}

type MainBalanceService interface {
	UpdateMainBucket(ctx context.Context, userID string, amount decimal.Decimal) (*mainbalancedomain.MainBalance, error)
}

type ActivitiesService interface {
	CreateActivity(ctx context.Context, input activitydomain.CreateActivityInput) (*activitydomain.Activity, error)
}

type AutoDepositsService interface {
	SaveAutoDeposit(ctx context.Context, deposit *autodepositdomain.AutoDeposit) error
}

// pendingLease is how long a reserved operation may stay pending before a
// retry of the same payload takes it over.
const pendingLease = 2 * time.Minute

type Service struct {
	repo         Repository
	buckets      BucketsService
	mainBalance  MainBalanceService
	activities   ActivitiesService
	autoDeposits AutoDepositsService
	now          func() time.Time
}

func NewService(repo Repository, buckets BucketsService, mainBalance MainBalanceService, activities ActivitiesService, autoDeposits AutoDepositsService) *Service {
	return &Service{
		repo:         repo,
		buckets:      buckets,
		mainBalance:  mainBalance,
		activities:   activities,
		autoDeposits: autoDeposits,
		now:          time.Now,
	}
}

func (s *Service) ProcessBatch(ctx context.Context, input BatchInput) (*BatchResponse, error) {
	if len(input.Operations) == 0 {
		return nil, fmt.Errorf("operations are required")
	}
	if len(input.Operations) > MaxBatchOperations {
		return nil, ErrBatchTooLarge
	}

	syncID := uuid.NewString()

	requestHash, err := hashRequest(input.Operations)
	if err != nil {
		return nil, err
	}

	idempotencyKey := strings.TrimSpace(input.IdempotencyKey)
	batchCreated := false

	if idempotencyKey != "" {
		batch := &BatchRecord{
			ID:             syncID,
			UserID:         input.UserID,
			IdempotencyKey: &idempotencyKey,
			RequestHash:    requestHash,
			Status:         BatchStateProcessing,
		}

		created, existing, err := s.repo.BeginBatch(ctx, batch)
		if err != nil {
			return nil, err
		}
		if !created {
			if existing == nil {
				return nil, ErrBatchInProgress
			}
			if existing.RequestHash != requestHash {
				return nil, ErrIdempotencyKeyPayloadMismatch
			}
			if existing.Status == BatchStateCompleted && len(existing.ResponseJSON) > 0 {
				var cached BatchResponse
				if err := json.Unmarshal(existing.ResponseJSON, &cached); err == nil {
					return &cached, nil
				}
			}
			return nil, ErrBatchInProgress
		}

		batchCreated = true
	}

	response := BatchResponse{
		SyncID:   syncID,
		Results:  make([]OperationResult, 0, len(input.Operations)),
		Mappings: make([]EntityMapping, 0),
		Summary: BatchSummary{
			Total: len(input.Operations),
		},
		ServerTime: time.Now().UTC(),
	}

	for _, operation := range input.Operations {
		result := s.Apply(ctx, input.UserID, operation)
		response.Results = append(response.Results, result)
		if mapping := mappingFor(result); mapping != nil {
			response.Mappings = append(response.Mappings, *mapping)
		}

		switch result.Status {
		case ResultStatusApplied:
			response.Summary.Applied++
		case ResultStatusDuplicate:
			response.Summary.Duplicate++
		default:
			response.Summary.Failed++
		}
	}

	response.Status = deriveBatchStatus(response.Summary)

	if batchCreated {
		if encoded, err := json.Marshal(response); err == nil {
			_ = s.repo.CompleteBatch(ctx, syncID, BatchStateCompleted, encoded)
		}
	}

	return &response, nil
}

// Apply runs one operation at most once per (user, operation id). Replaying
// an id with the same payload reports the stored outcome as a duplicate.
func (s *Service) Apply(ctx context.Context, userID string, operation OperationInput) OperationResult {
	base := OperationResult{
		OperationID: operation.OperationID,
		Type:        operation.Type,
	}

	payloadHash, err := hashOperation(operation)
	if err != nil {
		return failResult(base, ErrorCodeInternalError, "internal error", true)
	}

	now := s.now().UTC()
	reserved := &OperationRecord{
		ID:            uuid.NewString(),
		UserID:        userID,
		OperationID:   operation.OperationID,
		OperationType: operation.Type,
		PayloadHash:   payloadHash,
		Status:        OperationStatePending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if operation.LocalID != "" {
		localID := operation.LocalID
		reserved.LocalID = &localID
	}

	created, existing, err := s.repo.ReserveOperation(ctx, reserved)
	if err != nil {
		return failResult(base, ErrorCodeInternalError, "internal error", true)
	}
	if !created {
		if !retryableFailure(existing, payloadHash) && !stalePending(existing, payloadHash, now) {
			return resultFromExisting(base, operation, existing, payloadHash)
		}
		// Every operation type is safe to re-run: amounts are absolute,
		// activities dedupe on client id, schedules upsert by id.
		reserved.ID = existing.ID
		reserved.CreatedAt = existing.CreatedAt
	}

	result := s.applyOperation(ctx, userID, base, operation)

	updateRecord := *reserved
	if result.Status == ResultStatusApplied {
		updateRecord.Status = OperationStateApplied
		updateRecord.Entity = result.Entity
		updateRecord.ServerID = result.ServerID
		updateRecord.ErrorCode = nil
		updateRecord.ErrorMessage = nil
		updateRecord.Retryable = nil
	} else {
		updateRecord.Status = OperationStateFailed
		if result.Error != nil {
			code := result.Error.Code
			message := result.Error.Message
			retryable := result.Error.Retryable
			updateRecord.ErrorCode = &code
			updateRecord.ErrorMessage = &message
			updateRecord.Retryable = &retryable
		}
	}

	if result.LocalID != nil {
		updateRecord.LocalID = result.LocalID
	}

	// The outcome is recorded even when ctx was cancelled mid-apply, so the
	// reservation does not stay pending.
	if err := s.repo.UpdateOperation(context.WithoutCancel(ctx), &updateRecord); err != nil {
		return failResult(base, ErrorCodeInternalError, "internal error", true)
	}

	return result
}

func (s *Service) applyOperation(ctx context.Context, userID string, base OperationResult, operation OperationInput) OperationResult {
	result := base

	switch operation.Type {
	case OperationTypeSetBucketAmount:
		payload := operation.SetBucketAmount
		if payload == nil {
			return failResult(result, ErrorCodeInvalidRequest, "payload is required", false)
		}
		if err := s.buckets.UpdateAmount(ctx, userID, payload.BucketID, payload.Amount); err != nil {
			return failFromError(result, err)
		}
		return appliedResult(result, operation.LocalID, EntityBucket, payload.BucketID)

	case OperationTypeSetMainBalance:
		payload := operation.SetMainBalance
		if payload == nil {
			return failResult(result, ErrorCodeInvalidRequest, "payload is required", false)
		}
		balance, err := s.mainBalance.UpdateMainBucket(ctx, userID, payload.Amount)
		if err != nil {
			return failFromError(result, err)
		}
		return appliedResult(result, operation.LocalID, EntityMainBalance, balance.ID)

	case OperationTypeAppendActivity:
		payload := operation.AppendActivity
		if payload == nil {
			return failResult(result, ErrorCodeInvalidRequest, "payload is required", false)
		}
		created, err := s.activities.CreateActivity(ctx, activitydomain.CreateActivityInput{
			ClientID:      payload.ClientID,
			UserID:        userID,
			BucketID:      payload.BucketID,
			Type:          activitydomain.Type(payload.ActivityType),
			Title:         payload.Title,
			Amount:        payload.Amount,
			FromSource:    payload.FromSource,
			ToDestination: payload.ToDestination,
			Description:   payload.Description,
			Date:          payload.Date,
		})
		if err != nil {
			return failFromError(result, err)
		}
		return appliedResult(result, firstNonEmpty(operation.LocalID, payload.ClientID), EntityActivity, created.ID)

	case OperationTypeSaveAutoDeposit:
		payload := operation.SaveAutoDeposit
		if payload == nil {
			return failResult(result, ErrorCodeInvalidRequest, "payload is required", false)
		}
		deposit := autodepositdomain.AutoDeposit{
			ID:                payload.ID,
			UserID:            userID,
			BucketID:          payload.BucketID,
			Amount:            payload.Amount.Round(2),
			RepeatType:        autodepositdomain.RepeatType(payload.RepeatType),
			RepeatEveryDays:   payload.RepeatEveryDays,
			AnchorDay:         payload.AnchorDay,
			EndType:           autodepositdomain.EndType(payload.EndType),
			EndDate:           payload.EndDate,
			Status:            autodepositdomain.Status(payload.Status),
			NextExecutionDate: payload.NextExecutionDate,
		}
		if !deposit.RepeatType.Valid() || !deposit.EndType.Valid() {
			return failResult(result, ErrorCodeInvalidRequest, "invalid schedule", false)
		}
		if deposit.Status != autodepositdomain.StatusActive && deposit.Status != autodepositdomain.StatusCancelled {
			return failResult(result, ErrorCodeInvalidRequest, "invalid status", false)
		}
		if err := s.autoDeposits.SaveAutoDeposit(ctx, &deposit); err != nil {
			return failFromError(result, err)
		}
		return appliedResult(result, operation.LocalID, EntityAutoDeposit, deposit.ID)

	case OperationTypeDeleteBucket:
		payload := operation.DeleteBucket
		if payload == nil {
			return failResult(result, ErrorCodeInvalidRequest, "payload is required", false)
		}
		err := s.buckets.DeleteBucket(ctx, userID, payload.BucketID)
		if err != nil && !errors.Is(err, bucketdomain.ErrBucketNotFound) {
			return failFromError(result, err)
		}
		return appliedResult(result, operation.LocalID, EntityBucket, payload.BucketID)

	default:
		return failResult(result, ErrorCodeUnsupportedOperationType, "unsupported operation type", false)
	}
}

func appliedResult(result OperationResult, localID string, entity Entity, serverID string) OperationResult {
	result.Status = ResultStatusApplied
	result.LocalID = nonEmptyStringPtr(localID)
	result.Entity = &entity
	result.ServerID = nonEmptyStringPtr(serverID)
	return result
}

func failFromError(result OperationResult, err error) OperationResult {
	switch {
	case errors.Is(err, bucketdomain.ErrBucketNotFound):
		return failResult(result, ErrorCodeBucketNotFound, "bucket not found", false)
	case errors.Is(err, bucketdomain.ErrInvalidBucket),
		errors.Is(err, activitydomain.ErrInvalidActivity),
		errors.Is(err, mainbalancedomain.ErrNegativeBalance),
		errors.Is(err, autodepositdomain.ErrInvalidAutoDeposit):
		return failResult(result, ErrorCodeInvalidRequest, err.Error(), false)
	default:
		return failResult(result, ErrorCodeInternalError, "internal error", true)
	}
}

func mappingFor(result OperationResult) *EntityMapping {
	if result.LocalID == nil || result.ServerID == nil || result.Entity == nil {
		return nil
	}
	if result.Status != ResultStatusApplied && result.Status != ResultStatusDuplicate {
		return nil
	}
	return &EntityMapping{
		Entity:   *result.Entity,
		LocalID:  *result.LocalID,
		ServerID: *result.ServerID,
	}
}

func resultFromExisting(base OperationResult, operation OperationInput, existing *OperationRecord, payloadHash string) OperationResult {
	if existing == nil {
		return failResult(base, ErrorCodeBatchInProgress, "operation is being processed", true)
	}
	if existing.PayloadHash != payloadHash {
		return failResult(base, ErrorCodeOperationPayloadMismatch, "operation_id already used with different payload", false)
	}
	if existing.Status == OperationStatePending {
		return failResult(base, ErrorCodeBatchInProgress, "operation is being processed", true)
	}

	result := base
	if existing.Status == OperationStateFailed {
		result.Status = ResultStatusFailed
		if existing.ErrorCode != nil {
			result.Error = &OperationError{
				Code:      *existing.ErrorCode,
				Message:   valueOr(existing.ErrorMessage, "operation failed"),
				Retryable: valueOr(existing.Retryable, false),
			}
		} else {
			result.Error = &OperationError{
				Code:      ErrorCodeInternalError,
				Message:   "internal error",
				Retryable: true,
			}
		}
		result.LocalID = firstNonNil(existing.LocalID, nonEmptyStringPtr(operation.LocalID))
		return result
	}

	result.Status = ResultStatusDuplicate
	result.LocalID = firstNonNil(existing.LocalID, nonEmptyStringPtr(operation.LocalID))
	result.Entity = cloneEntity(existing.Entity)
	result.ServerID = cloneString(existing.ServerID)
	return result
}

func retryableFailure(existing *OperationRecord, payloadHash string) bool {
	return existing != nil &&
		existing.PayloadHash == payloadHash &&
		existing.Status == OperationStateFailed &&
		valueOr(existing.Retryable, false)
}

// stalePending reports a reservation whose applier went away (crash or lost
// connection) before recording the outcome.
func stalePending(existing *OperationRecord, payloadHash string, now time.Time) bool {
	if existing == nil || existing.PayloadHash != payloadHash || existing.Status != OperationStatePending {
		return false
	}
	touched := existing.UpdatedAt
	if touched.IsZero() {
		touched = existing.CreatedAt
	}
	return !touched.IsZero() && now.Sub(touched) >= pendingLease
}

func failResult(base OperationResult, code ErrorCode, message string, retryable bool) OperationResult {
	base.Status = ResultStatusFailed
	base.Error = &OperationError{
		Code:      code,
		Message:   message,
		Retryable: retryable,
	}
	return base
}

func deriveBatchStatus(summary BatchSummary) BatchStatus {
	if summary.Failed == 0 {
		return BatchStatusSuccess
	}
	if summary.Applied > 0 || summary.Duplicate > 0 {
		return BatchStatusPartialSuccess
	}
	return BatchStatusFailed
}

func hashRequest(operations []OperationInput) (string, error) {
	hashes := make([]string, 0, len(operations))
	for _, operation := range operations {
		hash, err := hashOperation(operation)
		if err != nil {
			return "", err
		}
		hashes = append(hashes, hash)
	}
	return hashValue(hashes)
}

func hashOperation(operation OperationInput) (string, error) {
	var payload interface{}
	switch operation.Type {
	case OperationTypeSetBucketAmount:
		payload = operation.SetBucketAmount
	case OperationTypeSetMainBalance:
		payload = operation.SetMainBalance
	case OperationTypeAppendActivity:
		payload = operation.AppendActivity
	case OperationTypeSaveAutoDeposit:
		payload = operation.SaveAutoDeposit
	case OperationTypeDeleteBucket:
		payload = operation.DeleteBucket
	default:
		payload = map[string]string{"type": string(operation.Type)}
	}

	value := struct {
		Type    OperationType `json:"type"`
		LocalID string        `json:"local_id,omitempty"`
		Payload interface{}   `json:"payload"`
	}{
		Type:    operation.Type,
		LocalID: operation.LocalID,
		Payload: payload,
	}

	return hashValue(value)
}

func hashValue(value interface{}) (string, error) {
	encoded, err := json.Marshal(value)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:]), nil
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}

func cloneEntity(value *Entity) *Entity {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}

func nonEmptyStringPtr(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

func firstNonNil[T any](values ...*T) *T {
	for _, value := range values {
		if value != nil {
			return value
		}
	}
	return nil
}

func valueOr[T any](value *T, fallback T) T {
	if value == nil {
		return fallback
	}
	return *value
}
