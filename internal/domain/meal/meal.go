package meal

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	ErrNotFound = errors.New("meal: not found")
	ErrInvalid  = errors.New("meal: invalid")
)

type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string { return "Meal not found" }

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// Ingredient is the per-portion consumption of one stock item.
type Ingredient struct {
	IngredientID string  `json:"ingredientId"`
	Quantity     float64 `json:"quantity"`
}

type Meal struct {
	ID          string
	Name        string
	Ingredients []Ingredient
	Category    string
	Description *string
}

func New(id, name, category string, description *string, ingredients []Ingredient) (*Meal, error) {
	m := &Meal{
		ID:          id,
		Name:        strings.TrimSpace(name),
		Ingredients: append([]Ingredient(nil), ingredients...),
		Category:    strings.TrimSpace(category),
		Description: description,
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Meal) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if m.Category == "" {
		return fmt.Errorf("%w: category is required", ErrInvalid)
	}
	for idx, in := range m.Ingredients {
		if strings.TrimSpace(in.IngredientID) == "" {
			return fmt.Errorf("%w: ingredients[%d].ingredientId is required", ErrInvalid, idx)
		}
		if in.Quantity <= 0 || math.IsNaN(in.Quantity) || math.IsInf(in.Quantity, 0) {
			return fmt.Errorf("%w: ingredients[%d].quantity must be greater than zero", ErrInvalid, idx)
		}
	}
	return nil
}

// Requirement is the total amount of one ingredient needed for a serving.
type Requirement struct {
	IngredientID string
	Amount       float64
}

// Requirements multiplies per-portion quantities by portions, merging repeated
// ingredient entries while keeping first-seen order.
func (m *Meal) Requirements(portions int) []Requirement {
	out := make([]Requirement, 0, len(m.Ingredients))
	index := make(map[string]int, len(m.Ingredients))
	for _, in := range m.Ingredients {
		amount := in.Quantity * float64(portions)
		if pos, ok := index[in.IngredientID]; ok {
			out[pos].Amount += amount
			continue
		}
		index[in.IngredientID] = len(out)
		out = append(out, Requirement{IngredientID: in.IngredientID, Amount: amount})
	}
	return out
}

// PossiblePortions returns how many whole portions the given stock allows.
// stock maps ingredient id to available quantity; a missing entry allows none.
func (m *Meal) PossiblePortions(stock map[string]float64) int {
	reqs := m.Requirements(1)
	if len(reqs) == 0 {
		return 0
	}
	limit := math.MaxInt
	for _, r := range reqs {
		available, ok := stock[r.IngredientID]
		if !ok {
			return 0
		}
		n := wholePortions(available / r.Amount)
		if n < limit {
			limit = n
		}
	}
	return limit
}

// wholePortions floors q into an int, saturating at math.MaxInt.
func wholePortions(q float64) int {
	q = math.Floor(q)
	switch {
	case !(q > 0): // zero, negative or NaN
		return 0
	case q >= float64(math.MaxInt):
		return math.MaxInt
	default:
		return int(q)
	}
}

func (m *Meal) Clone() *Meal {
	if m == nil {
		return nil
	}
	clone := *m
	clone.Ingredients = append([]Ingredient(nil), m.Ingredients...)
	if m.Description != nil {
		d := *m.Description
		clone.Description = &d
	}
	return &clone
}
