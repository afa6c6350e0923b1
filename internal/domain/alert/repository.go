package alert

import "context"

type Repository interface {
	Insert(ctx context.Context, a *Alert) error
	// List returns alerts newest first.
	List(ctx context.Context, unreadOnly bool) ([]*Alert, error)
}
