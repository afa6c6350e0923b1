package settings

import "context"

// Repository stores at most one Settings row.
type Repository interface {
	// Get returns ErrNotFound while no row has been written.
	Get(ctx context.Context) (*Settings, error)
	Insert(ctx context.Context, s *Settings) error
	Update(ctx context.Context, s *Settings) error
}
