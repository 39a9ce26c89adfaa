package sync

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
)

// DecodeOperation parses a wire payload into a typed operation. The same
// decoding serves client batches and the server's own outbox.
func DecodeOperation(operationID string, operationType OperationType, localID string, raw json.RawMessage) (OperationInput, error) {
	operationID = strings.TrimSpace(operationID)
	if _, err := uuid.Parse(operationID); err != nil {
		return OperationInput{}, fmt.Errorf("%w: invalid operation_id", ErrInvalidOperation)
	}

	result := OperationInput{
		OperationID: operationID,
		Type:        OperationType(strings.TrimSpace(string(operationType))),
		LocalID:     strings.TrimSpace(localID),
	}

	switch result.Type {
	case OperationTypeSetBucketAmount:
		var payload SetBucketAmountPayload
		if err := decodePayload(raw, &payload); err != nil {
			return OperationInput{}, err
		}
		if strings.TrimSpace(payload.BucketID) == "" {
			return OperationInput{}, fmt.Errorf("%w: bucket_id is required", ErrInvalidOperation)
		}
		if payload.Amount.IsNegative() {
			return OperationInput{}, fmt.Errorf("%w: amount must not be negative", ErrInvalidOperation)
		}
		result.SetBucketAmount = &payload

	case OperationTypeSetMainBalance:
		var payload SetMainBalancePayload
		if err := decodePayload(raw, &payload); err != nil {
			return OperationInput{}, err
		}
		if payload.Amount.IsNegative() {
			return OperationInput{}, fmt.Errorf("%w: amount must not be negative", ErrInvalidOperation)
		}
		result.SetMainBalance = &payload

	case OperationTypeAppendActivity:
		var payload AppendActivityPayload
		if err := decodePayload(raw, &payload); err != nil {
			return OperationInput{}, err
		}
		if strings.TrimSpace(payload.ClientID) == "" || strings.TrimSpace(payload.BucketID) == "" {
			return OperationInput{}, fmt.Errorf("%w: client_id and bucket_id are required", ErrInvalidOperation)
		}
		if strings.TrimSpace(payload.Title) == "" {
			return OperationInput{}, fmt.Errorf("%w: title is required", ErrInvalidOperation)
		}
		result.AppendActivity = &payload

	case OperationTypeSaveAutoDeposit:
		var payload SaveAutoDepositPayload
		if err := decodePayload(raw, &payload); err != nil {
			return OperationInput{}, err
		}
		if _, err := uuid.Parse(payload.ID); err != nil {
			return OperationInput{}, fmt.Errorf("%w: invalid auto deposit id", ErrInvalidOperation)
		}
		if strings.TrimSpace(payload.BucketID) == "" {
			return OperationInput{}, fmt.Errorf("%w: bucket_id is required", ErrInvalidOperation)
		}
		if !payload.Amount.IsPositive() {
			return OperationInput{}, fmt.Errorf("%w: amount must be positive", ErrInvalidOperation)
		}
		result.SaveAutoDeposit = &payload

	case OperationTypeDeleteBucket:
		var payload DeleteBucketPayload
		if err := decodePayload(raw, &payload); err != nil {
			return OperationInput{}, err
		}
		if strings.TrimSpace(payload.BucketID) == "" {
			return OperationInput{}, fmt.Errorf("%w: bucket_id is required", ErrInvalidOperation)
		}
		result.DeleteBucket = &payload
	}

	return result, nil
}

func decodePayload(raw json.RawMessage, dst interface{}) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return fmt.Errorf("%w: payload is required", ErrInvalidOperation)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOperation, err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("%w: trailing data after payload", ErrInvalidOperation)
	}
	return nil
}
