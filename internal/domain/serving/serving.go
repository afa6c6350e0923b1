package serving

import (
	"errors"
	"time"
)

var ErrInvalidPortions = errors.New("serving: portions must be greater than zero")

// Record is an append-only log entry of one serving.
type Record struct {
	ID          string
	MealID      string
	Portions    int
	UserID      string
	ServingDate time.Time
}

func NewRecord(id, mealID, userID string, portions int, servedAt time.Time) (*Record, error) {
	if portions <= 0 {
		return nil, ErrInvalidPortions
	}
	return &Record{
		ID:          id,
		MealID:      mealID,
		Portions:    portions,
		UserID:      userID,
		ServingDate: servedAt.UTC(),
	}, nil
}

func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	clone := *r
	return &clone
}
