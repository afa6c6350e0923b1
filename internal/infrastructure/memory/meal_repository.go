package memory

import (
	"context"
	"fmt"

	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/meal"
)

type mealRepository struct {
	with access
}

func (r *mealRepository) List(ctx context.Context) ([]*meal.Meal, error) {
	_ = ctx
	var out []*meal.Meal
	err := r.with(false, func(t *tables) error {
		out = make([]*meal.Meal, 0, len(t.mealOrder))
		for _, id := range t.mealOrder {
			out = append(out, t.meals[id].Clone())
		}
		return nil
	})
	return out, err
}

func (r *mealRepository) Get(ctx context.Context, id string) (*meal.Meal, error) {
	_ = ctx
	var out *meal.Meal
	err := r.with(false, func(t *tables) error {
		m, ok := t.meals[id]
		if !ok {
			return &meal.NotFoundError{ID: id}
		}
		out = m.Clone()
		return nil
	})
	return out, err
}

func (r *mealRepository) Insert(ctx context.Context, m *meal.Meal) error {
	_ = ctx
	if m == nil || m.ID == "" {
		return fmt.Errorf("memory: meal id is required")
	}
	return r.with(true, func(t *tables) error {
		if _, exists := t.meals[m.ID]; exists {
			return fmt.Errorf("memory: meal %s already exists", m.ID)
		}
		t.meals[m.ID] = m.Clone()
		t.mealOrder = append(t.mealOrder, m.ID)
		return nil
	})
}

func (r *mealRepository) Update(ctx context.Context, m *meal.Meal) error {
	_ = ctx
	if m == nil || m.ID == "" {
		return fmt.Errorf("memory: meal id is required")
	}
	return r.with(true, func(t *tables) error {
		if _, exists := t.meals[m.ID]; !exists {
			return &meal.NotFoundError{ID: m.ID}
		}
		t.meals[m.ID] = m.Clone()
		return nil
	})
}

func (r *mealRepository) Delete(ctx context.Context, id string) error {
	_ = ctx
	return r.with(true, func(t *tables) error {
		if _, exists := t.meals[id]; !exists {
			return &meal.NotFoundError{ID: id}
		}
		delete(t.meals, id)
		t.mealOrder = without(t.mealOrder, id)
		return nil
	})
}
