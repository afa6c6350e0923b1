package ingredient

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidates(t *testing.T) {
	cases := []struct {
		name     string
		in       Ingredient
		contains string
	}{
		{"missing name", Ingredient{Unit: "kg", Category: "dry"}, "name is required"},
		{"missing unit", Ingredient{Name: "Flour", Category: "dry"}, "unit is required"},
		{"missing category", Ingredient{Name: "Flour", Unit: "kg"}, "category is required"},
		{"negative quantity", Ingredient{Name: "Flour", Unit: "kg", Category: "dry", Quantity: -1}, "quantity"},
		{"negative minimum", Ingredient{Name: "Flour", Unit: "kg", Category: "dry", MinimumQuantity: -1}, "minimumQuantity"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New("id", tc.in.Name, tc.in.Unit, tc.in.Category, tc.in.Quantity, tc.in.MinimumQuantity, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), tc.contains)
		})
	}
}

func TestDeduct(t *testing.T) {
	i, err := New("p", " Pasta ", "kg", "dry", 10, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, "Pasta", i.Name)

	require.NoError(t, i.Deduct(4))
	assert.InDelta(t, 6, i.Quantity, 1e-9)

	err = i.Deduct(7)
	var short *InsufficientStockError
	require.True(t, errors.As(err, &short))
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, "Not enough Pasta available. Need 7, have 6", err.Error())
	assert.InDelta(t, 6, i.Quantity, 1e-9)

	assert.ErrorIs(t, i.Deduct(0), ErrInvalidQuantity)
}

func TestInsufficientStockMessageTrimsFractions(t *testing.T) {
	err := &InsufficientStockError{Name: "Milk", Needed: 1.25, Available: 0.5}
	assert.Equal(t, "Not enough Milk available. Need 1.25, have 0.5", err.Error())
}

func TestNotFoundError(t *testing.T) {
	err := error(&NotFoundError{ID: "abc"})
	assert.Equal(t, "Ingredient abc not found", err.Error())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStockLevels(t *testing.T) {
	i := &Ingredient{Quantity: 10.5, MinimumQuantity: 10}
	assert.False(t, i.BelowMinimum())
	assert.True(t, i.BelowWarningLevel(10))
	assert.False(t, i.BelowWarningLevel(0))

	i.Quantity = 9
	assert.True(t, i.BelowMinimum())
}

func TestCloneIsIndependent(t *testing.T) {
	i, err := New("p", "Rice", "kg", "dry", 1, 0, nil)
	require.NoError(t, err)
	c := i.Clone()
	c.Quantity = 99
	assert.InDelta(t, 1, i.Quantity, 1e-9)
	assert.Nil(t, (*Ingredient)(nil).Clone())
}
