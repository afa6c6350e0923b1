package ingredient

import "context"

type Repository interface {
	List(ctx context.Context) ([]*Ingredient, error)
	Get(ctx context.Context, id string) (*Ingredient, error)
	// GetForUpdate reads the row and holds it until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, id string) (*Ingredient, error)
	Insert(ctx context.Context, i *Ingredient) error
	Update(ctx context.Context, i *Ingredient) error
	Delete(ctx context.Context, id string) error
	// Deduct subtracts amount only while the stored quantity covers it.
	Deduct(ctx context.Context, id string, amount float64) error
}
