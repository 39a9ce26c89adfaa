package autodeposit

import (
	"context"
	"errors"
	"time"

	domain "buckety-go/internal/domain/autodeposit"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) ListByBucket(ctx context.Context, userID, bucketID string) ([]domain.AutoDeposit, error) {
	var items []domain.AutoDeposit
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND bucket_id = ?", userID, bucketID).
		Order("created_at DESC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]domain.AutoDeposit, error) {
	var items []domain.AutoDeposit
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("next_execution_date ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *PostgresRepository) GetAutoDeposit(ctx context.Context, userID, id string) (*domain.AutoDeposit, error) {
	var item domain.AutoDeposit
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAutoDepositNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (r *PostgresRepository) SaveAutoDeposit(ctx context.Context, deposit *domain.AutoDeposit) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"amount",
				"repeat_type",
				"repeat_every_days",
				"anchor_day",
				"end_type",
				"end_date",
				"status",
				"next_execution_date",
				"updated_at",
			}),
		}).
		Create(deposit).Error
}

func (r *PostgresRepository) CancelOthers(ctx context.Context, userID, bucketID, keepID string, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.AutoDeposit{}).
		Where("user_id = ? AND bucket_id = ? AND id <> ? AND status = ?", userID, bucketID, keepID, domain.StatusActive).
		Updates(map[string]interface{}{
			"status":     domain.StatusCancelled,
			"updated_at": at,
		})
	return result.RowsAffected, result.Error
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, userID, id string, status domain.Status, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.AutoDeposit{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *PostgresRepository) UpdateSchedule(ctx context.Context, id string, next time.Time, status domain.Status, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&domain.AutoDeposit{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"next_execution_date": next,
			"status":              status,
			"updated_at":          at,
		}).Error
}

func (r *PostgresRepository) ListDue(ctx context.Context, now time.Time) ([]domain.AutoDeposit, error) {
	var items []domain.AutoDeposit
	if err := r.db.WithContext(ctx).
		Where("status = ? AND next_execution_date <= ?", domain.StatusActive, now).
		Order("next_execution_date ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *PostgresRepository) ListActive(ctx context.Context) ([]domain.AutoDeposit, error) {
	var items []domain.AutoDeposit
	if err := r.db.WithContext(ctx).
		Where("status = ?", domain.StatusActive).
		Order("next_execution_date ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
