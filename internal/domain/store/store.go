// Package store describes the transactional gateway over the kitchen tables.
package store

import (
	"context"
	"errors"

	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/alert"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/ingredient"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/meal"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/serving"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/settings"
)

// ErrUnavailable wraps failures of the underlying data store.
var ErrUnavailable = errors.New("store: unavailable")

// Tx exposes the repositories bound to one unit of work.
type Tx interface {
	Ingredients() ingredient.Repository
	Meals() meal.Repository
	Servings() serving.Repository
	Alerts() alert.Repository
	Settings() settings.Repository
}

// Store is a Tx whose repositories run outside any transaction, plus Atomic.
type Store interface {
	Tx
	// Atomic runs fn in a single transaction. A non-nil error from fn rolls
	// every write back; otherwise the writes are committed together.
	Atomic(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
