package preferences

import "context"

type Repository interface {
	GetPreferences(ctx context.Context, userID string) (*UserPreferences, error)
	// CreateIfMissing inserts the row, leaving an existing one untouched.
	CreateIfMissing(ctx context.Context, prefs *UserPreferences) error
	UpsertPreferences(ctx context.Context, prefs *UserPreferences) error
}
