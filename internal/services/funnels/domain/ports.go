package domain

import (
	"context"

	"arguxai/internal/core/conversion"
)

// CatalogPort is the funnel CRUD surface
type CatalogPort interface {
	Create(ctx context.Context, in CreateInput) (Funnel, error)
	Get(ctx context.Context, id string) (Funnel, error)
	List(ctx context.Context) ([]Funnel, error)
	Delete(ctx context.Context, id string) error
}

// StepsPort is what detection needs: every step once, with its denominator step
type StepsPort interface {
	Steps(ctx context.Context) ([]conversion.Step, error)
}

// StorageRepo is the postgres funnel catalog
type StorageRepo interface {
	Insert(ctx context.Context, f Funnel) error
	Get(ctx context.Context, id string) (Funnel, error)
	List(ctx context.Context) ([]Funnel, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}
