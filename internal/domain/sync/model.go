package sync

import (
	"time"

	"github.com/shopspring/decimal"
)

const MaxBatchOperations = 100

type OperationType string

const (
	OperationTypeSetBucketAmount OperationType = "set_bucket_amount"
	OperationTypeSetMainBalance  OperationType = "set_main_balance"
	OperationTypeAppendActivity  OperationType = "append_activity"
	OperationTypeSaveAutoDeposit OperationType = "save_auto_deposit"
	OperationTypeDeleteBucket    OperationType = "delete_bucket"
)

type ResultStatus string

const (
	ResultStatusApplied   ResultStatus = "applied"
	ResultStatusDuplicate ResultStatus = "duplicate"
	ResultStatusFailed    ResultStatus = "failed"
)

type BatchStatus string

const (
	BatchStatusSuccess        BatchStatus = "success"
	BatchStatusPartialSuccess BatchStatus = "partial_success"
	BatchStatusFailed         BatchStatus = "failed"
)

type ErrorCode string

const (
	ErrorCodeInvalidRequest                ErrorCode = "invalid_request"
	ErrorCodeInvalidJSON                   ErrorCode = "invalid_json"
	ErrorCodeUnsupportedOperationType      ErrorCode = "unsupported_operation_type"
	ErrorCodeOperationPayloadMismatch      ErrorCode = "operation_payload_mismatch"
	ErrorCodeBucketNotFound                ErrorCode = "bucket_not_found"
	ErrorCodeSyncBatchTooLarge             ErrorCode = "sync_batch_too_large"
	ErrorCodeIdempotencyKeyPayloadMismatch ErrorCode = "idempotency_key_payload_mismatch"
	ErrorCodeBatchInProgress               ErrorCode = "batch_in_progress"
	ErrorCodeInternalError                 ErrorCode = "internal_error"
)

type Entity string

const (
	EntityBucket      Entity = "bucket"
	EntityMainBalance Entity = "main_balance"
	EntityActivity    Entity = "activity"
	EntityAutoDeposit Entity = "auto_deposit"
)

type BatchState string

const (
	BatchStateProcessing BatchState = "processing"
	BatchStateCompleted  BatchState = "completed"
)

type OperationState string

const (
	OperationStatePending OperationState = "pending"
	OperationStateApplied OperationState = "applied"
	OperationStateFailed  OperationState = "failed"
)

type BatchInput struct {
	UserID         string
	IdempotencyKey string
	Operations     []OperationInput
}

type OperationInput struct {
	OperationID     string
	Type            OperationType
	LocalID         string
	SetBucketAmount *SetBucketAmountPayload
	SetMainBalance  *SetMainBalancePayload
	AppendActivity  *AppendActivityPayload
	SaveAutoDeposit *SaveAutoDepositPayload
	DeleteBucket    *DeleteBucketPayload
}

type SetBucketAmountPayload struct {
	BucketID string          `json:"bucket_id"`
	Amount   decimal.Decimal `json:"amount"`
}

type SetMainBalancePayload struct {
	Amount decimal.Decimal `json:"amount"`
}

type AppendActivityPayload struct {
	ClientID      string          `json:"client_id"`
	BucketID      string          `json:"bucket_id"`
	ActivityType  string          `json:"activity_type"`
	Title         string          `json:"title"`
	Amount        decimal.Decimal `json:"amount"`
	FromSource    string          `json:"from_source,omitempty"`
	ToDestination string          `json:"to_destination,omitempty"`
	Description   string          `json:"description,omitempty"`
	Date          time.Time       `json:"date"`
}

type SaveAutoDepositPayload struct {
	ID                string          `json:"id"`
	BucketID          string          `json:"bucket_id"`
	Amount            decimal.Decimal `json:"amount"`
	RepeatType        string          `json:"repeat_type"`
	RepeatEveryDays   *int            `json:"repeat_every_days,omitempty"`
	AnchorDay         *int            `json:"anchor_day,omitempty"`
	EndType           string          `json:"end_type"`
	EndDate           *time.Time      `json:"end_date,omitempty"`
	Status            string          `json:"status"`
	NextExecutionDate time.Time       `json:"next_execution_date"`
}

type DeleteBucketPayload struct {
	BucketID string `json:"bucket_id"`
}

type BatchResponse struct {
	SyncID     string            `json:"sync_id"`
	Status     BatchStatus       `json:"status"`
	Summary    BatchSummary      `json:"summary"`
	Results    []OperationResult `json:"results"`
	Mappings   []EntityMapping   `json:"mappings"`
	ServerTime time.Time         `json:"server_time"`
}

type BatchSummary struct {
	Total     int `json:"total"`
	Applied   int `json:"applied"`
	Duplicate int `json:"duplicate"`
	Failed    int `json:"failed"`
}

type OperationResult struct {
	OperationID string          `json:"operation_id"`
	Type        OperationType   `json:"type"`
	Status      ResultStatus    `json:"status"`
	LocalID     *string         `json:"local_id,omitempty"`
	Entity      *Entity         `json:"entity,omitempty"`
	ServerID    *string         `json:"server_id,omitempty"`
	Error       *OperationError `json:"error,omitempty"`
}

type OperationError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Retryable bool      `json:"retryable"`
}

type EntityMapping struct {
	Entity   Entity `json:"entity"`
	LocalID  string `json:"local_id"`
	ServerID string `json:"server_id"`
}

type BatchRecord struct {
	ID             string     `gorm:"type:uuid;primaryKey"`
	UserID         string     `gorm:"type:uuid;not null;index"`
	IdempotencyKey *string    `gorm:"column:idempotency_key"`
	RequestHash    string     `gorm:"not null"`
	Status         BatchState `gorm:"not null"`
	ResponseJSON   []byte     `gorm:"type:jsonb;column:response_json"`
	CreatedAt      time.Time  `gorm:"autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime"`
}

func (BatchRecord) TableName() string {
	return "sync_batches"
}

type OperationRecord struct {
	ID            string         `gorm:"type:uuid;primaryKey"`
	UserID        string         `gorm:"type:uuid;not null;index"`
	OperationID   string         `gorm:"not null"`
	OperationType OperationType  `gorm:"not null;column:operation_type"`
	PayloadHash   string         `gorm:"not null;column:payload_hash"`
	LocalID       *string        `gorm:"column:local_id"`
	Status        OperationState `gorm:"not null"`
	Entity        *Entity        `gorm:"column:entity"`
	ServerID      *string        `gorm:"column:server_id"`
	ErrorCode     *ErrorCode     `gorm:"column:error_code"`
	ErrorMessage  *string        `gorm:"column:error_message"`
	Retryable     *bool          `gorm:"column:retryable"`
	CreatedAt     time.Time      `gorm:"autoCreateTime"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime"`
}

func (OperationRecord) TableName() string {
	return "sync_operations"
}
