package memory

import (
	"context"
	"fmt"

	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/ingredient"
)

type ingredientRepository struct {
	with access
}

func (r *ingredientRepository) List(ctx context.Context) ([]*ingredient.Ingredient, error) {
	_ = ctx
	var out []*ingredient.Ingredient
	err := r.with(false, func(t *tables) error {
		out = make([]*ingredient.Ingredient, 0, len(t.ingredientOrder))
		for _, id := range t.ingredientOrder {
			out = append(out, t.ingredients[id].Clone())
		}
		return nil
	})
	return out, err
}

func (r *ingredientRepository) Get(ctx context.Context, id string) (*ingredient.Ingredient, error) {
	_ = ctx
	var out *ingredient.Ingredient
	err := r.with(false, func(t *tables) error {
		item, ok := t.ingredients[id]
		if !ok {
			return &ingredient.NotFoundError{ID: id}
		}
		out = item.Clone()
		return nil
	})
	return out, err
}

// GetForUpdate needs no row lock here: transactions already run one at a time.
func (r *ingredientRepository) GetForUpdate(ctx context.Context, id string) (*ingredient.Ingredient, error) {
	return r.Get(ctx, id)
}

func (r *ingredientRepository) Insert(ctx context.Context, i *ingredient.Ingredient) error {
	_ = ctx
	if i == nil || i.ID == "" {
		return fmt.Errorf("memory: ingredient id is required")
	}
	return r.with(true, func(t *tables) error {
		if _, exists := t.ingredients[i.ID]; exists {
			return fmt.Errorf("memory: ingredient %s already exists", i.ID)
		}
		t.ingredients[i.ID] = i.Clone()
		t.ingredientOrder = append(t.ingredientOrder, i.ID)
		return nil
	})
}

func (r *ingredientRepository) Update(ctx context.Context, i *ingredient.Ingredient) error {
	_ = ctx
	if i == nil || i.ID == "" {
		return fmt.Errorf("memory: ingredient id is required")
	}
	return r.with(true, func(t *tables) error {
		if _, exists := t.ingredients[i.ID]; !exists {
			return &ingredient.NotFoundError{ID: i.ID}
		}
		t.ingredients[i.ID] = i.Clone()
		return nil
	})
}

func (r *ingredientRepository) Delete(ctx context.Context, id string) error {
	_ = ctx
	return r.with(true, func(t *tables) error {
		if _, exists := t.ingredients[id]; !exists {
			return &ingredient.NotFoundError{ID: id}
		}
		delete(t.ingredients, id)
		t.ingredientOrder = without(t.ingredientOrder, id)
		return nil
	})
}

func (r *ingredientRepository) Deduct(ctx context.Context, id string, amount float64) error {
	_ = ctx
	return r.with(true, func(t *tables) error {
		item, ok := t.ingredients[id]
		if !ok {
			return &ingredient.NotFoundError{ID: id}
		}
		if err := item.CheckAvailable(amount); err != nil {
			return err
		}
		item.Quantity -= amount
		return nil
	})
}

func without(ids []string, id string) []string {
	out := ids[:0:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
