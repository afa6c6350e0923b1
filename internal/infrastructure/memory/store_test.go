package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/alert"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/ingredient"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/meal"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/serving"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/settings"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/store"
)

func seedIngredient(t *testing.T, s *Store, id string, qty, min float64) {
	t.Helper()
	i, err := ingredient.New(id, id, "kg", "dry", qty, min, nil)
	require.NoError(t, err)
	require.NoError(t, s.Ingredients().Insert(context.Background(), i))
}

func TestIngredientCRUD(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedIngredient(t, s, "flour", 5, 1)
	seedIngredient(t, s, "milk", 2, 1)

	list, err := s.Ingredients().List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "flour", list[0].ID)
	assert.Equal(t, "milk", list[1].ID)

	list[0].Quantity = 100
	got, err := s.Ingredients().Get(ctx, "flour")
	require.NoError(t, err)
	assert.InDelta(t, 5, got.Quantity, 1e-9, "returned rows must be copies")

	got.Quantity = 7
	require.NoError(t, s.Ingredients().Update(ctx, got))
	got, err = s.Ingredients().Get(ctx, "flour")
	require.NoError(t, err)
	assert.InDelta(t, 7, got.Quantity, 1e-9)

	require.NoError(t, s.Ingredients().Delete(ctx, "flour"))
	_, err = s.Ingredients().Get(ctx, "flour")
	assert.ErrorIs(t, err, ingredient.ErrNotFound)
	assert.ErrorIs(t, s.Ingredients().Delete(ctx, "flour"), ingredient.ErrNotFound)

	missing := &ingredient.Ingredient{ID: "nope", Name: "n", Unit: "kg", Category: "c"}
	assert.ErrorIs(t, s.Ingredients().Update(ctx, missing), ingredient.ErrNotFound)
	milk, err := s.Ingredients().Get(ctx, "milk")
	require.NoError(t, err)
	assert.Error(t, s.Ingredients().Insert(ctx, milk), "duplicate ids are rejected")
}

func TestDeductRefusesNegativeStock(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedIngredient(t, s, "rice", 1, 0)

	err := s.Ingredients().Deduct(ctx, "rice", 1.5)
	assert.ErrorIs(t, err, ingredient.ErrInsufficientStock)

	require.NoError(t, s.Ingredients().Deduct(ctx, "rice", 1))
	got, err := s.Ingredients().Get(ctx, "rice")
	require.NoError(t, err)
	assert.InDelta(t, 0, got.Quantity, 1e-9)
}

func TestAtomicCommitsOnSuccess(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedIngredient(t, s, "rice", 10, 0)

	err := s.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := tx.Ingredients().Deduct(ctx, "rice", 4); err != nil {
			return err
		}
		return tx.Servings().Insert(ctx, &serving.Record{ID: "s1", MealID: "m", Portions: 1, ServingDate: time.Now()})
	})
	require.NoError(t, err)

	got, err := s.Ingredients().Get(ctx, "rice")
	require.NoError(t, err)
	assert.InDelta(t, 6, got.Quantity, 1e-9)

	recs, err := s.Servings().ListBetween(ctx, time.Time{}, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestAtomicRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedIngredient(t, s, "rice", 10, 0)
	boom := errors.New("boom")

	err := s.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		require.NoError(t, tx.Ingredients().Deduct(ctx, "rice", 4))
		require.NoError(t, tx.Alerts().Insert(ctx, alert.NewLowStock("a1", "rice", time.Now())))
		inTx, err := tx.Ingredients().Get(ctx, "rice")
		require.NoError(t, err)
		assert.InDelta(t, 6, inTx.Quantity, 1e-9, "writes are visible inside the transaction")
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.Ingredients().Get(ctx, "rice")
	require.NoError(t, err)
	assert.InDelta(t, 10, got.Quantity, 1e-9)

	alerts, err := s.Alerts().List(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestAtomicHonoursCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := NewStore().Atomic(ctx, func(context.Context, store.Tx) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestMealsRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	m, err := meal.New("m1", "Pasta", "lunch", nil, []meal.Ingredient{{IngredientID: "pasta", Quantity: 0.2}})
	require.NoError(t, err)
	require.NoError(t, s.Meals().Insert(ctx, m))

	got, err := s.Meals().Get(ctx, "m1")
	require.NoError(t, err)
	got.Ingredients[0].Quantity = 9
	again, err := s.Meals().Get(ctx, "m1")
	require.NoError(t, err)
	assert.InDelta(t, 0.2, again.Ingredients[0].Quantity, 1e-9)

	_, err = s.Meals().Get(ctx, "missing")
	var nf *meal.NotFoundError
	assert.True(t, errors.As(err, &nf))
	assert.ErrorIs(t, s.Meals().Delete(ctx, "missing"), meal.ErrNotFound)
}

func TestServingsListBetweenIsHalfOpen(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	for i, at := range []time.Time{from.Add(-time.Second), from, to.Add(-time.Second), to} {
		rec := &serving.Record{ID: string(rune('a' + i)), MealID: "m", Portions: 1, ServingDate: at}
		require.NoError(t, s.Servings().Insert(ctx, rec))
	}

	got, err := s.Servings().ListBetween(ctx, from, to)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, "c", got[1].ID)
}

func TestAlertsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.Alerts().Insert(ctx, alert.NewLowStock("old", "a", base)))
	read := alert.NewLowStock("read", "b", base.Add(time.Minute))
	read.IsRead = true
	require.NoError(t, s.Alerts().Insert(ctx, read))
	require.NoError(t, s.Alerts().Insert(ctx, alert.NewLowStock("new", "c", base.Add(2*time.Minute))))

	all, err := s.Alerts().List(ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"new", "read", "old"}, []string{all[0].ID, all[1].ID, all[2].ID})

	unread, err := s.Alerts().List(ctx, true)
	require.NoError(t, err)
	assert.Len(t, unread, 2)
}

func TestSettingsSingleRow(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	_, err := s.Settings().Get(ctx)
	assert.ErrorIs(t, err, settings.ErrNotFound)
	row := settings.Defaults()
	assert.ErrorIs(t, s.Settings().Update(ctx, &row), settings.ErrNotFound)

	require.NoError(t, s.Settings().Insert(ctx, &row))
	assert.Error(t, s.Settings().Insert(ctx, &row))
	assert.Equal(t, 1, s.SettingsRows())

	row.KitchenName = "Other"
	require.NoError(t, s.Settings().Update(ctx, &row))
	got, err := s.Settings().Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Other", got.KitchenName)
}
