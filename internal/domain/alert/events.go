package alert

import "time"

// LowStockEvent is emitted after commit for every low-stock alert a serving produced.
type LowStockEvent struct {
	AlertID         string    `json:"alertId" bson:"alertId"`
	IngredientID    string    `json:"ingredientId" bson:"ingredientId"`
	IngredientName  string    `json:"ingredientName" bson:"ingredientName"`
	Quantity        float64   `json:"quantity" bson:"quantity"`
	MinimumQuantity float64   `json:"minimumQuantity" bson:"minimumQuantity"`
	Message         string    `json:"message" bson:"message"`
	OccurredAt      time.Time `json:"occurredAt" bson:"occurredAt"`
}

func (LowStockEvent) EventName() string { return "stock.low" }
