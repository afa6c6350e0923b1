package memory

import (
	"context"
	"sync"

	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/alert"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/ingredient"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/meal"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/serving"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/settings"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/store"
)

// tables is one complete copy of the kitchen data.
type tables struct {
	ingredients     map[string]*ingredient.Ingredient
	ingredientOrder []string
	meals           map[string]*meal.Meal
	mealOrder       []string
	servings        []*serving.Record
	alerts          []*alert.Alert
	settings        *settings.Settings
}

func newTables() *tables {
	return &tables{
		ingredients: make(map[string]*ingredient.Ingredient),
		meals:       make(map[string]*meal.Meal),
	}
}

func (t *tables) clone() *tables {
	c := &tables{
		ingredients:     make(map[string]*ingredient.Ingredient, len(t.ingredients)),
		ingredientOrder: append([]string(nil), t.ingredientOrder...),
		meals:           make(map[string]*meal.Meal, len(t.meals)),
		mealOrder:       append([]string(nil), t.mealOrder...),
		servings:        make([]*serving.Record, 0, len(t.servings)),
		alerts:          make([]*alert.Alert, 0, len(t.alerts)),
	}
	for id, i := range t.ingredients {
		c.ingredients[id] = i.Clone()
	}
	for id, m := range t.meals {
		c.meals[id] = m.Clone()
	}
	for _, r := range t.servings {
		c.servings = append(c.servings, r.Clone())
	}
	for _, a := range t.alerts {
		c.alerts = append(c.alerts, a.Clone())
	}
	if t.settings != nil {
		s := *t.settings
		c.settings = &s
	}
	return c
}

// access runs fn against a table set; write reports whether fn mutates it.
type access func(write bool, fn func(*tables) error) error

// Store keeps every table in process memory. Atomic holds the write lock for
// the whole transaction and works on a copy that replaces the live tables
// only when fn succeeds.
type Store struct {
	mu   sync.RWMutex
	data *tables
}

var _ store.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{data: newTables()}
}

func (s *Store) direct(write bool, fn func(*tables) error) error {
	if write {
		s.mu.Lock()
		defer s.mu.Unlock()
	} else {
		s.mu.RLock()
		defer s.mu.RUnlock()
	}
	return fn(s.data)
}

func (s *Store) Atomic(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.data.clone()
	tx := &txView{with: func(_ bool, fn func(*tables) error) error { return fn(work) }}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.data = work
	return nil
}

func (s *Store) Ingredients() ingredient.Repository { return &ingredientRepository{with: s.direct} }
func (s *Store) Meals() meal.Repository             { return &mealRepository{with: s.direct} }
func (s *Store) Servings() serving.Repository       { return &servingRepository{with: s.direct} }
func (s *Store) Alerts() alert.Repository           { return &alertRepository{with: s.direct} }
func (s *Store) Settings() settings.Repository      { return &settingsRepository{with: s.direct} }

type txView struct {
	with access
}

func (t *txView) Ingredients() ingredient.Repository { return &ingredientRepository{with: t.with} }
func (t *txView) Meals() meal.Repository             { return &mealRepository{with: t.with} }
func (t *txView) Servings() serving.Repository       { return &servingRepository{with: t.with} }
func (t *txView) Alerts() alert.Repository           { return &alertRepository{with: t.with} }
func (t *txView) Settings() settings.Repository      { return &settingsRepository{with: t.with} }
