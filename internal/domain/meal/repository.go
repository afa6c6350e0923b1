package meal

import "context"

type Repository interface {
	List(ctx context.Context) ([]*Meal, error)
	Get(ctx context.Context, id string) (*Meal, error)
	Insert(ctx context.Context, m *Meal) error
	Update(ctx context.Context, m *Meal) error
	Delete(ctx context.Context, id string) error
}
