package ingredient

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotFound          = errors.New("ingredient: not found")
	ErrInvalid           = errors.New("ingredient: invalid")
	ErrInvalidQuantity   = errors.New("ingredient: quantity must be greater than zero")
	ErrInsufficientStock = errors.New("ingredient: insufficient stock")
)

// NotFoundError names the ingredient that could not be loaded.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("Ingredient %s not found", e.ID) }

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// InsufficientStockError reports a requested consumption larger than the available stock.
type InsufficientStockError struct {
	Name      string
	Needed    float64
	Available float64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Not enough %s available. Need %s, have %s", e.Name, formatAmount(e.Needed), formatAmount(e.Available))
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

type Ingredient struct {
	ID               string
	Name             string
	Quantity         float64
	Unit             string
	MinimumQuantity  float64
	Category         string
	LastDeliveryDate *time.Time
}

func New(id, name, unit, category string, quantity, minimum float64, lastDelivery *time.Time) (*Ingredient, error) {
	i := &Ingredient{
		ID:               id,
		Name:             strings.TrimSpace(name),
		Quantity:         quantity,
		Unit:             strings.TrimSpace(unit),
		MinimumQuantity:  minimum,
		Category:         strings.TrimSpace(category),
		LastDeliveryDate: lastDelivery,
	}
	if err := i.Validate(); err != nil {
		return nil, err
	}
	return i, nil
}

func (i *Ingredient) Validate() error {
	switch {
	case i.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalid)
	case i.Unit == "":
		return fmt.Errorf("%w: unit is required", ErrInvalid)
	case i.Category == "":
		return fmt.Errorf("%w: category is required", ErrInvalid)
	case i.Quantity < 0:
		return fmt.Errorf("%w: quantity must be zero or greater", ErrInvalid)
	case i.MinimumQuantity < 0:
		return fmt.Errorf("%w: minimumQuantity must be zero or greater", ErrInvalid)
	}
	return nil
}

// CheckAvailable reports whether amount can be taken without driving stock negative.
func (i *Ingredient) CheckAvailable(amount float64) error {
	if amount <= 0 {
		return ErrInvalidQuantity
	}
	if amount > i.Quantity {
		return &InsufficientStockError{Name: i.Name, Needed: amount, Available: i.Quantity}
	}
	return nil
}

func (i *Ingredient) Deduct(amount float64) error {
	if err := i.CheckAvailable(amount); err != nil {
		return err
	}
	i.Quantity -= amount
	return nil
}

// BelowMinimum is the low-stock alert condition.
func (i *Ingredient) BelowMinimum() bool {
	return i.Quantity < i.MinimumQuantity
}

// BelowWarningLevel widens the minimum by thresholdPercent, e.g. 10 warns under 110% of the minimum.
func (i *Ingredient) BelowWarningLevel(thresholdPercent float64) bool {
	return i.Quantity < i.MinimumQuantity*(1+thresholdPercent/100)
}

func (i *Ingredient) Clone() *Ingredient {
	if i == nil {
		return nil
	}
	clone := *i
	if i.LastDeliveryDate != nil {
		d := *i.LastDeliveryDate
		clone.LastDeliveryDate = &d
	}
	return &clone
}

func formatAmount(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.3f", v), "0"), ".")
}
