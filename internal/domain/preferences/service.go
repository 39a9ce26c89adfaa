package preferences

import (
	"context"
	"errors"
	"strings"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns the stored preferences, or the defaults when none exist yet.
func (s *Service) Get(ctx context.Context, userID string) (*UserPreferences, error) {
	prefs, err := s.repo.GetPreferences(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrPreferencesNotFound) {
			return &UserPreferences{UserID: userID, Theme: ThemeSystem}, nil
		}
		return nil, err
	}
	return prefs, nil
}

func (s *Service) SetTheme(ctx context.Context, userID string, theme Theme) (*UserPreferences, error) {
	theme = Theme(strings.ToLower(strings.TrimSpace(string(theme))))
	if !theme.Valid() {
		return nil, ErrInvalidTheme
	}
	prefs := UserPreferences{UserID: userID, Theme: theme}
	if err := s.repo.UpsertPreferences(ctx, &prefs); err != nil {
		return nil, err
	}
	return &prefs, nil
}

// EnsureUser makes sure an authenticated user has a preferences row.
func (s *Service) EnsureUser(ctx context.Context, userID string) error {
	return s.repo.CreateIfMissing(ctx, &UserPreferences{UserID: userID, Theme: ThemeSystem})
}
