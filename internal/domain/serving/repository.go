package serving

import (
	"context"
	"time"
)

type Repository interface {
	Insert(ctx context.Context, r *Record) error
	// ListBetween returns records with from <= ServingDate < to, oldest first.
	ListBetween(ctx context.Context, from, to time.Time) ([]*Record, error)
}
