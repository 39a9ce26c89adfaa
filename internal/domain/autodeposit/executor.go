package autodeposit

import (
	"context"
	"fmt"
	"sort"
	"time"

	notificationdomain "buckety-go/internal/domain/notification"
	"buckety-go/pkg/logger"
	"github.com/shopspring/decimal"
)

// BucketSnapshot is the executor's view of a destination bucket.
type BucketSnapshot struct {
	ID              string
	Title           string
	BackgroundColor string
	CurrentAmount   decimal.Decimal
	TargetAmount    decimal.Decimal
}

func (b BucketSnapshot) Completed() bool {
	return b.TargetAmount.IsPositive() && b.CurrentAmount.GreaterThanOrEqual(b.TargetAmount)
}

// Depositor moves money from a user's main balance into a bucket through the
// same path user transfers take.
type Depositor interface {
	SyncUser(ctx context.Context, userID string) error
	Bucket(ctx context.Context, userID, bucketID string) (BucketSnapshot, bool, error)
	// DepositFromMain returns applied=false with a reason when the transfer
	// was rejected by validation (for example insufficient funds).
	DepositFromMain(ctx context.Context, userID string, deposit AutoDeposit) (bool, string, error)
	// Settle blocks until the user's queued remote writes have been
	// delivered.
	Settle(ctx context.Context, userID string) error
}

type Notifier interface {
	CreateNotification(ctx context.Context, input notificationdomain.CreateNotificationInput) (*notificationdomain.Notification, error)
}

type schedules interface {
	ListForUser(ctx context.Context, userID string) ([]AutoDeposit, error)
	ListDue(ctx context.Context, now time.Time) ([]AutoDeposit, error)
	ListActive(ctx context.Context) ([]AutoDeposit, error)
	Advance(ctx context.Context, id string, next time.Time, status Status) error
}

type UserResult struct {
	UserID   string `json:"userId"`
	Executed int    `json:"executed"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
}

type RunResult struct {
	Success        bool         `json:"success"`
	TotalExecuted  int          `json:"totalExecuted"`
	UsersProcessed int          `json:"usersProcessed"`
	Results        []UserResult `json:"results"`
	Timestamp      time.Time    `json:"timestamp"`
}

// UserSummary describes one ExecuteForUser call.
type UserSummary struct {
	Executed  int
	Cancelled int
	Skipped   []string
}

func (s UserSummary) Message() string {
	message := fmt.Sprintf("Executed %d auto deposit(s)", s.Executed)
	if s.Cancelled > 0 {
		message += fmt.Sprintf(", %d ended", s.Cancelled)
	}
	if len(s.Skipped) > 0 {
		message += fmt.Sprintf(", %d skipped", len(s.Skipped))
	}
	return message
}

type Executor struct {
	schedules schedules
	depositor Depositor
	notifier  Notifier
	log       logger.Logger
	now       func() time.Time
}

func NewExecutor(service *Service, depositor Depositor, notifier Notifier, log logger.Logger) *Executor {
	return &Executor{
		schedules: service,
		depositor: depositor,
		notifier:  notifier,
		log:       log.Named("autodeposit.executor"),
		now:       time.Now,
	}
}

// ExecuteForUser runs the user's active schedules that are due now.
func (e *Executor) ExecuteForUser(ctx context.Context, userID string) (UserSummary, error) {
	items, err := e.schedules.ListForUser(ctx, userID)
	if err != nil {
		return UserSummary{}, err
	}
	now := e.now().UTC()
	due := make([]AutoDeposit, 0, len(items))
	for _, item := range items {
		if item.Status == StatusActive && !item.NextExecutionDate.After(now) {
			due = append(due, item)
		}
	}

	summary, err := e.executeUser(ctx, userID, due)
	if settleErr := e.depositor.Settle(ctx, userID); settleErr != nil && err == nil {
		err = settleErr
	}
	return summary, err
}

// RunDue executes every active schedule whose next execution date has passed.
func (e *Executor) RunDue(ctx context.Context) (RunResult, error) {
	items, err := e.schedules.ListDue(ctx, e.now().UTC())
	if err != nil {
		return RunResult{}, err
	}
	return e.run(ctx, items), nil
}

// RunAll executes every active schedule regardless of its due date.
func (e *Executor) RunAll(ctx context.Context) (RunResult, error) {
	items, err := e.schedules.ListActive(ctx)
	if err != nil {
		return RunResult{}, err
	}
	return e.run(ctx, items), nil
}

func (e *Executor) run(ctx context.Context, items []AutoDeposit) RunResult {
	byUser := make(map[string][]AutoDeposit)
	for _, item := range items {
		byUser[item.UserID] = append(byUser[item.UserID], item)
	}
	userIDs := make([]string, 0, len(byUser))
	for userID := range byUser {
		userIDs = append(userIDs, userID)
	}
	sort.Strings(userIDs)

	result := RunResult{
		Success: true,
		Results: make([]UserResult, 0, len(userIDs)),
	}
	for _, userID := range userIDs {
		summary, err := e.executeUser(ctx, userID, byUser[userID])
		entry := UserResult{UserID: userID, Executed: summary.Executed, Success: err == nil}
		if err != nil {
			entry.Error = err.Error()
			e.log.InternalError("auto deposit run failed for user", err, "user_id", userID)
		}
		if err := e.depositor.Settle(ctx, userID); err != nil {
			e.log.InternalError("auto deposit settle failed", err, "user_id", userID)
		}
		result.TotalExecuted += summary.Executed
		result.Results = append(result.Results, entry)
	}
	result.UsersProcessed = len(userIDs)
	result.Timestamp = e.now().UTC()
	return result
}

func (e *Executor) executeUser(ctx context.Context, userID string, items []AutoDeposit) (UserSummary, error) {
	var summary UserSummary
	if len(items) == 0 {
		return summary, nil
	}
	if err := e.depositor.SyncUser(ctx, userID); err != nil {
		return summary, fmt.Errorf("sync user: %w", err)
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].NextExecutionDate.Before(items[j].NextExecutionDate)
	})

	for _, item := range items {
		if err := e.executeOne(ctx, item, &summary); err != nil {
			return summary, err
		}
	}
	return summary, nil
}

func (e *Executor) executeOne(ctx context.Context, item AutoDeposit, summary *UserSummary) error {
	now := e.now().UTC()
	log := e.log.With("user_id", item.UserID, "auto_deposit_id", item.ID, "bucket_id", item.BucketID)

	bucket, found, err := e.depositor.Bucket(ctx, item.UserID, item.BucketID)
	if err != nil {
		return err
	}
	if !found {
		log.Warn("bucket missing, cancelling schedule")
		summary.Cancelled++
		return e.schedules.Advance(ctx, item.ID, item.NextExecutionDate, StatusCancelled)
	}
	if item.Expired(now) || (item.EndType == EndBucketCompleted && bucket.Completed()) {
		log.Info("schedule ended")
		summary.Cancelled++
		return e.schedules.Advance(ctx, item.ID, item.NextExecutionDate, StatusCancelled)
	}

	// The period is claimed before money moves, so a failure after the
	// deposit can never make the next run deposit it again.
	next := NextAfter(item.NextExecutionDate, now, item.RepeatType, item.everyDays(), item.anchorDay())
	if err := e.schedules.Advance(ctx, item.ID, next, StatusActive); err != nil {
		return fmt.Errorf("claim period: %w", err)
	}

	applied, reason, err := e.depositor.DepositFromMain(ctx, item.UserID, item)
	if err != nil || !applied {
		if releaseErr := e.schedules.Advance(context.WithoutCancel(ctx), item.ID, item.NextExecutionDate, item.Status); releaseErr != nil {
			log.InternalError("auto deposit period release failed", releaseErr)
		}
		if err != nil {
			return err
		}
		log.BusinessError("auto deposit skipped", fmt.Errorf("%s", reason))
		summary.Skipped = append(summary.Skipped, fmt.Sprintf("%s: %s", bucket.Title, reason))
		return nil
	}
	summary.Executed++

	status := StatusActive
	after, found, err := e.depositor.Bucket(ctx, item.UserID, item.BucketID)
	if err != nil {
		return err
	}
	if found {
		bucket = after
	}
	if (item.EndType == EndBucketCompleted && bucket.Completed()) || item.Expired(next) {
		status = StatusCancelled
		summary.Cancelled++
		if err := e.schedules.Advance(ctx, item.ID, next, status); err != nil {
			return err
		}
	}

	amount := item.Amount
	_, err = e.notifier.CreateNotification(ctx, notificationdomain.CreateNotificationInput{
		UserID:  item.UserID,
		Type:    notificationdomain.TypeAutoDeposit,
		Title:   "Auto deposit completed",
		Message: fmt.Sprintf("$%s was added to %s", amount.StringFixed(2), bucket.Title),
		Amount:  &amount,
		Metadata: map[string]string{
			"bucket_id":    bucket.ID,
			"bucket_name":  bucket.Title,
			"bucket_color": bucket.BackgroundColor,
		},
	})
	if err != nil {
		log.InternalError("auto deposit notification failed", err)
	}
	log.Info("auto deposit executed", "amount", amount.StringFixed(2), "next_execution_date", next, "status", status)
	return nil
}
