package serving

import "time"

// MealServedEvent is emitted once a serving transaction has committed.
type MealServedEvent struct {
	RecordID   string    `json:"recordId" bson:"recordId"`
	MealID     string    `json:"mealId" bson:"mealId"`
	Portions   int       `json:"portions" bson:"portions"`
	UserID     string    `json:"userId" bson:"userId"`
	OccurredAt time.Time `json:"occurredAt" bson:"occurredAt"`
}

func (MealServedEvent) EventName() string { return "meal.served" }

func NewMealServedEvent(r *Record) MealServedEvent {
	return MealServedEvent{
		RecordID:   r.ID,
		MealID:     r.MealID,
		Portions:   r.Portions,
		UserID:     r.UserID,
		OccurredAt: r.ServingDate,
	}
}
