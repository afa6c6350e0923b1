package report

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/application"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/ingredient"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/meal"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/serving"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/settings"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/infrastructure/memory"
)

type staticSettings settings.Settings

func (s staticSettings) Current(context.Context) (settings.Settings, error) {
	return settings.Settings(s), nil
}

func seed(t *testing.T) *memory.Store {
	t.Helper()
	ctx := context.Background()
	st := memory.NewStore()

	flour, err := ingredient.New("flour", "Flour", "kg", "dry", 20, 0, nil)
	require.NoError(t, err)
	require.NoError(t, st.Ingredients().Insert(ctx, flour))
	m, err := meal.New("pasta", "Pasta", "lunch", nil, []meal.Ingredient{{IngredientID: "flour", Quantity: 2}})
	require.NoError(t, err)
	require.NoError(t, st.Meals().Insert(ctx, m))

	for i, at := range []time.Time{
		time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC),
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC),
		time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
	} {
		rec, err := serving.NewRecord(string(rune('a'+i)), "pasta", "u1", i+1, at)
		require.NoError(t, err)
		require.NoError(t, st.Servings().Insert(ctx, rec))
	}
	return st
}

func TestMonthlyFiltersByMonthBoundaries(t *testing.T) {
	svc := NewService(seed(t), nil, nil)

	rep, err := svc.Monthly(context.Background(), 2024, 3)
	require.NoError(t, err)
	require.Len(t, rep.Servings, 2)
	assert.Equal(t, "b", rep.Servings[0].ID)
	assert.Equal(t, "c", rep.Servings[1].ID)
	assert.Equal(t, 5, rep.TotalPortions)
	assert.Equal(t, 10, rep.TotalPossiblePortions)
	assert.InDelta(t, 50, rep.Difference, 1e-9)
	assert.True(t, rep.IsMisuse)
}

func TestMonthlyMisuseThresholdFromSettings(t *testing.T) {
	s := settings.Defaults()
	s.MisuseThreshold = 60
	svc := NewService(seed(t), staticSettings(s), nil)

	rep, err := svc.Monthly(context.Background(), 2024, 3)
	require.NoError(t, err)
	assert.False(t, rep.IsMisuse)
}

func TestMonthlyEmptyMonth(t *testing.T) {
	svc := NewService(memory.NewStore(), nil, nil)

	rep, err := svc.Monthly(context.Background(), 2023, 12)
	require.NoError(t, err)
	assert.NotNil(t, rep.Servings)
	assert.Empty(t, rep.Servings)
	assert.Zero(t, rep.TotalPortions)
	assert.Zero(t, rep.Difference)
	assert.False(t, rep.IsMisuse)
}

func TestMonthlyPossiblePortionsSaturate(t *testing.T) {
	ctx := context.Background()
	st := memory.NewStore()
	salt, err := ingredient.New("salt", "Salt", "kg", "spices", 1e20, 0, nil)
	require.NoError(t, err)
	require.NoError(t, st.Ingredients().Insert(ctx, salt))
	for _, id := range []string{"soup", "stew"} {
		m, err := meal.New(id, id, "lunch", nil, []meal.Ingredient{{IngredientID: "salt", Quantity: 1e-6}})
		require.NoError(t, err)
		require.NoError(t, st.Meals().Insert(ctx, m))
	}

	rep, err := NewService(st, nil, nil).Monthly(ctx, 2024, 3)
	require.NoError(t, err)
	assert.Equal(t, math.MaxInt, rep.TotalPossiblePortions)
	assert.InDelta(t, 100, rep.Difference, 1e-9)
	assert.True(t, rep.IsMisuse)
}

func TestMonthlyValidatesInput(t *testing.T) {
	svc := NewService(memory.NewStore(), nil, nil)
	for _, tc := range []struct{ year, month int }{{2024, 0}, {2024, 13}, {0, 5}, {10000, 1}} {
		_, err := svc.Monthly(context.Background(), tc.year, tc.month)
		assert.ErrorIs(t, err, application.ErrValidation, "%d-%d", tc.year, tc.month)
	}
}

func TestDifference(t *testing.T) {
	assert.Zero(t, Difference(0, 5))
	assert.InDelta(t, 25, Difference(8, 6), 1e-9)
	assert.InDelta(t, -50, Difference(4, 6), 1e-9)
}
