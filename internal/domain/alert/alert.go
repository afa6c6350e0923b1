package alert

import (
	"fmt"
	"time"
)

type Type string

const TypeLowStock Type = "low_stock"

type Alert struct {
	ID      string
	Type    Type
	Message string
	Date    time.Time
	IsRead  bool
}

// NewLowStock builds the alert raised when an ingredient drops under its minimum.
func NewLowStock(id, ingredientName string, at time.Time) *Alert {
	return &Alert{
		ID:      id,
		Type:    TypeLowStock,
		Message: fmt.Sprintf("%s is below minimum quantity", ingredientName),
		Date:    at.UTC(),
	}
}

func (a *Alert) Clone() *Alert {
	if a == nil {
		return nil
	}
	clone := *a
	return &clone
}
