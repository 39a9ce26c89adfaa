package bucket

import (
	"context"
	"errors"
	"time"

	domain "buckety-go/internal/domain/bucket"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) ListBuckets(ctx context.Context, userID string) ([]domain.Bucket, error) {
	var buckets []domain.Bucket
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&buckets).Error; err != nil {
		return nil, err
	}
	return buckets, nil
}

func (r *PostgresRepository) GetBucket(ctx context.Context, userID, bucketID string) (*domain.Bucket, error) {
	var bucket domain.Bucket
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", bucketID, userID).
		First(&bucket).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrBucketNotFound
		}
		return nil, err
	}
	return &bucket, nil
}

func (r *PostgresRepository) CreateBucket(ctx context.Context, bucket *domain.Bucket) error {
	return r.db.WithContext(ctx).Create(bucket).Error
}

func (r *PostgresRepository) UpdateBucket(ctx context.Context, bucket *domain.Bucket) error {
	result := r.db.WithContext(ctx).
		Model(&domain.Bucket{}).
		Where("id = ? AND user_id = ?", bucket.ID, bucket.UserID).
		Updates(map[string]interface{}{
			"title":            bucket.Title,
			"target_amount":    bucket.TargetAmount,
			"background_color": bucket.BackgroundColor,
			"apy":              bucket.APY,
			"updated_at":       bucket.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrBucketNotFound
	}
	return nil
}

func (r *PostgresRepository) UpdateAmount(ctx context.Context, userID, bucketID string, amount decimal.Decimal, updatedAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.Bucket{}).
		Where("id = ? AND user_id = ?", bucketID, userID).
		Updates(map[string]interface{}{
			"current_amount": amount,
			"updated_at":     updatedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *PostgresRepository) DeleteBucket(ctx context.Context, userID, bucketID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", bucketID, userID).
		Delete(&domain.Bucket{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
