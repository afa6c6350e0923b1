package menu

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/ingredient"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/meal"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/infrastructure/memory"
)

type counterIDs struct{ n int }

func (c *counterIDs) NewID() string {
	c.n++
	return fmt.Sprintf("meal-%d", c.n)
}

func TestCreateUpdateDelete(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.NewStore(), &counterIDs{}, nil)
	desc := "with tomato sauce"

	m, err := svc.Create(ctx, MealInput{
		Name: "Pasta", Category: "lunch", Description: &desc,
		Ingredients: []meal.Ingredient{{IngredientID: "flour", Quantity: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, "meal-1", m.ID)

	_, err = svc.Update(ctx, m.ID, MealInput{Name: "Pasta al forno", Category: "dinner"})
	require.NoError(t, err)
	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Pasta al forno", list[0].Name)
	assert.Nil(t, list[0].Description)
	assert.Empty(t, list[0].Ingredients)

	require.NoError(t, svc.Delete(ctx, m.ID))
	assert.ErrorIs(t, svc.Delete(ctx, m.ID), meal.ErrNotFound)
	_, err = svc.Update(ctx, m.ID, MealInput{Name: "x", Category: "y"})
	assert.ErrorIs(t, err, meal.ErrNotFound)
}

func TestCreateRejectsBadEntries(t *testing.T) {
	svc := NewService(memory.NewStore(), &counterIDs{}, nil)
	_, err := svc.Create(context.Background(), MealInput{
		Name: "Soup", Category: "lunch",
		Ingredients: []meal.Ingredient{{IngredientID: "water", Quantity: -1}},
	})
	assert.ErrorIs(t, err, meal.ErrInvalid)
}

func TestAvailability(t *testing.T) {
	ctx := context.Background()
	st := memory.NewStore()
	svc := NewService(st, &counterIDs{}, nil)
	flour, err := ingredient.New("flour", "Flour", "kg", "dry", 10, 0, nil)
	require.NoError(t, err)
	require.NoError(t, st.Ingredients().Insert(ctx, flour))

	m, err := svc.Create(ctx, MealInput{Name: "Pasta", Category: "lunch",
		Ingredients: []meal.Ingredient{{IngredientID: "flour", Quantity: 3}}})
	require.NoError(t, err)

	got, err := svc.Availability(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, Availability{MealID: m.ID, PossiblePortions: 3}, got)

	_, err = svc.Availability(ctx, "missing")
	var nf *meal.NotFoundError
	assert.True(t, errors.As(err, &nf))
}
