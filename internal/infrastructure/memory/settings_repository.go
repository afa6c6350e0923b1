package memory

import (
	"context"
	"errors"

	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/settings"
)

var errSettingsExists = errors.New("memory: settings row already exists")

type settingsRepository struct {
	with access
}

func (r *settingsRepository) Get(ctx context.Context) (*settings.Settings, error) {
	_ = ctx
	var out *settings.Settings
	err := r.with(false, func(t *tables) error {
		if t.settings == nil {
			return settings.ErrNotFound
		}
		s := *t.settings
		out = &s
		return nil
	})
	return out, err
}

func (r *settingsRepository) Insert(ctx context.Context, s *settings.Settings) error {
	_ = ctx
	return r.with(true, func(t *tables) error {
		if t.settings != nil {
			return errSettingsExists
		}
		row := *s
		t.settings = &row
		return nil
	})
}

func (r *settingsRepository) Update(ctx context.Context, s *settings.Settings) error {
	_ = ctx
	return r.with(true, func(t *tables) error {
		if t.settings == nil {
			return settings.ErrNotFound
		}
		row := *s
		t.settings = &row
		return nil
	})
}

// SettingsRows reports how many settings rows exist, always 0 or 1.
func (s *Store) SettingsRows() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.data.settings == nil {
		return 0
	}
	return 1
}
