package mainbalance

import (
	"context"
	"errors"
	"time"

	domain "buckety-go/internal/domain/mainbalance"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetByUser(ctx context.Context, userID string) (*domain.MainBalance, error) {
	var balance domain.MainBalance
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&balance).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrMainBalanceNotFound
		}
		return nil, err
	}
	return &balance, nil
}

func (r *PostgresRepository) UpdateAmount(ctx context.Context, userID string, amount decimal.Decimal, updatedAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.MainBalance{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"current_amount": amount,
			"updated_at":     updatedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *PostgresRepository) Create(ctx context.Context, balance *domain.MainBalance) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).
		Create(balance)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
