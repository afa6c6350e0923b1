package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/application"
	domsettings "github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/settings"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/store"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/observability"
)

const (
	settingsService = "settings-service"

	useCaseGet    = "settings.get"
	useCaseUpdate = "settings.update"
)

type Service struct {
	store    store.Store
	defaults domsettings.Settings
	obs      application.Instrumentation
}

// NewService serves defaults until the first update writes the row.
func NewService(st store.Store, defaults domsettings.Settings, tel observability.Observability) *Service {
	return &Service{
		store:    st,
		defaults: defaults,
		obs:      application.NewInstrumentation(tel, settingsService),
	}
}

func (s *Service) Get(ctx context.Context) (_ domsettings.Settings, err error) {
	ctx, _, done := s.obs.Begin(ctx, useCaseGet, "GetSettings")
	defer func() { done(err) }()

	return s.Current(ctx)
}

// Current is Get without instrumentation, used by other services.
func (s *Service) Current(ctx context.Context) (domsettings.Settings, error) {
	row, err := s.store.Settings().Get(ctx)
	switch {
	case errors.Is(err, domsettings.ErrNotFound):
		return s.defaults, nil
	case err != nil:
		return domsettings.Settings{}, fmt.Errorf("settings: get: %w", err)
	}
	return *row, nil
}

// Update merges patch over the stored row, or the defaults when none exists,
// and writes it back in one transaction. The table never holds more than one row.
func (s *Service) Update(ctx context.Context, patch domsettings.Patch) (_ domsettings.Settings, err error) {
	ctx, logger, done := s.obs.Begin(ctx, useCaseUpdate, "UpdateSettings")
	defer func() { done(err) }()

	var out domsettings.Settings
	err = s.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		current, getErr := tx.Settings().Get(ctx)
		exists := true
		switch {
		case errors.Is(getErr, domsettings.ErrNotFound):
			exists = false
			d := s.defaults
			current = &d
		case getErr != nil:
			return getErr
		}

		next := patch.Apply(*current)
		if err := next.Validate(); err != nil {
			return err
		}

		if exists {
			if err := tx.Settings().Update(ctx, &next); err != nil {
				return err
			}
		} else {
			logger.Info("settings_row_created")
			if err := tx.Settings().Insert(ctx, &next); err != nil {
				return err
			}
		}
		out = next
		return nil
	})
	if err != nil {
		if errors.Is(err, domsettings.ErrInvalid) {
			return domsettings.Settings{}, err
		}
		return domsettings.Settings{}, fmt.Errorf("settings: update: %w", err)
	}
	return out, nil
}
