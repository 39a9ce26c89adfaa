package autodeposits

import (
	"context"

	autodepositdomain "buckety-go/internal/domain/autodeposit"
	"buckety-go/internal/localstore"
	"buckety-go/internal/storage"
	"buckety-go/pkg/logger"
)

type Store interface {
	LoadSnapshot(ctx context.Context, userID string) (storage.Snapshot, error)
	ListAutoDeposits(ctx context.Context, userID, bucketID string) ([]localstore.CachedAutoDeposit, error)
	CreateAutoDeposit(ctx context.Context, input autodepositdomain.CreateAutoDepositInput) (localstore.CachedAutoDeposit, error)
	CancelAutoDeposit(ctx context.Context, userID, id string) error
}

type Schedules interface {
	ListForUser(ctx context.Context, userID string) ([]autodepositdomain.AutoDeposit, error)
}

type Executor interface {
	ExecuteForUser(ctx context.Context, userID string) (autodepositdomain.UserSummary, error)
	RunDue(ctx context.Context) (autodepositdomain.RunResult, error)
	RunAll(ctx context.Context) (autodepositdomain.RunResult, error)
}

type Handlers struct {
	Store     Store
	Schedules Schedules
	Executor  Executor
	log       logger.Logger
}

func New(store Store, schedules Schedules, executor Executor, log logger.Logger) *Handlers {
	return &Handlers{
		Store:     store,
		Schedules: schedules,
		Executor:  executor,
		log:       log,
	}
}
