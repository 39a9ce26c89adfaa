package preferences

import (
	"context"
	"errors"
	"time"

	domain "buckety-go/internal/domain/preferences"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetPreferences(ctx context.Context, userID string) (*domain.UserPreferences, error) {
	var prefs domain.UserPreferences
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&prefs).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPreferencesNotFound
		}
		return nil, err
	}
	return &prefs, nil
}

func (r *PostgresRepository) CreateIfMissing(ctx context.Context, prefs *domain.UserPreferences) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).
		Create(prefs).Error
}

func (r *PostgresRepository) UpsertPreferences(ctx context.Context, prefs *domain.UserPreferences) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"theme":      prefs.Theme,
				"updated_at": time.Now().UTC(),
			}),
		}).
		Create(prefs).Error
}
