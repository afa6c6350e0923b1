// Package postgres implements store.Store on the hosted PostgreSQL database through gorm.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/alert"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/ingredient"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/meal"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/serving"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/settings"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/store"
)

type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type Store struct {
	db *gorm.DB
}

var _ store.Store = (*Store)(nil)

// DSN combines the data store URL with its access key. The key replaces any
// password embedded in the URL; the user defaults to "postgres".
func DSN(rawURL, key string) (string, error) {
	if strings.TrimSpace(rawURL) == "" {
		return "", errors.New("postgres: data store url is required")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("postgres: parse data store url: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return "", fmt.Errorf("postgres: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", errors.New("postgres: data store url has no host")
	}
	if key != "" {
		user := "postgres"
		if u.User != nil && u.User.Username() != "" {
			user = u.User.Username()
		}
		u.User = url.UserPassword(user, key)
	}
	q := u.Query()
	if q.Get("sslmode") == "" {
		q.Set("sslmode", "require")
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// Open connects and pings the database. The schema is expected to exist.
func Open(ctx context.Context, dsn string, opts Options) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("%w: open: %w", store.ErrUnavailable, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("%w: pool: %w", store.ErrUnavailable, err)
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("%w: ping: %w", store.ErrUnavailable, err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping reports whether the database answers, for health checks.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return wrapDB(err)
	}
	return wrapDB(sqlDB.PingContext(ctx))
}

func (s *Store) Atomic(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	var fnErr error
	err := s.db.WithContext(ctx).Transaction(func(gtx *gorm.DB) error {
		fnErr = fn(ctx, &txView{db: gtx})
		return fnErr
	})
	if err != nil && fnErr == nil {
		// begin or commit failed
		return wrapDB(err)
	}
	return err
}

func (s *Store) Ingredients() ingredient.Repository { return &ingredientRepository{db: s.db} }
func (s *Store) Meals() meal.Repository             { return &mealRepository{db: s.db} }
func (s *Store) Servings() serving.Repository       { return &servingRepository{db: s.db} }
func (s *Store) Alerts() alert.Repository           { return &alertRepository{db: s.db} }
func (s *Store) Settings() settings.Repository      { return &settingsRepository{db: s.db} }

type txView struct {
	db *gorm.DB
}

func (t *txView) Ingredients() ingredient.Repository { return &ingredientRepository{db: t.db} }
func (t *txView) Meals() meal.Repository             { return &mealRepository{db: t.db} }
func (t *txView) Servings() serving.Repository       { return &servingRepository{db: t.db} }
func (t *txView) Alerts() alert.Repository           { return &alertRepository{db: t.db} }
func (t *txView) Settings() settings.Repository {
	return &settingsRepository{db: t.db, forUpdate: true}
}

// wrapDB marks driver failures as store.ErrUnavailable, leaving context errors recognisable.
func wrapDB(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", store.ErrUnavailable, err)
}
