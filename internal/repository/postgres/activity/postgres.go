package activity

import (
	"context"
	"errors"

	domain "buckety-go/internal/domain/activity"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) ListByBucket(ctx context.Context, userID, bucketID string, types []domain.Type) ([]domain.Activity, error) {
	query := r.db.WithContext(ctx).
		Where("user_id = ? AND bucket_id = ?", userID, bucketID)
	if len(types) > 0 {
		query = query.Where("activity_type IN ?", types)
	}

	var activities []domain.Activity
	if err := query.Order("date DESC, created_at DESC").Find(&activities).Error; err != nil {
		return nil, err
	}
	return activities, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Activity, error) {
	var activities []domain.Activity
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date DESC, created_at DESC").
		Limit(limit).
		Find(&activities).Error; err != nil {
		return nil, err
	}
	return activities, nil
}

func (r *PostgresRepository) CreateActivity(ctx context.Context, activity *domain.Activity) (bool, *domain.Activity, error) {
	err := r.db.WithContext(ctx).Create(activity).Error
	if err == nil {
		return true, nil, nil
	}
	if !isUniqueViolation(err) {
		return false, nil, err
	}

	var existing domain.Activity
	if err := r.db.WithContext(ctx).
		Where("client_id = ?", activity.ClientID).
		First(&existing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil, nil
		}
		return false, nil, err
	}
	return false, &existing, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
