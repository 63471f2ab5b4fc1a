package domain

import (
	"context"

	"arguxai/internal/core/anomaly"
)

// EmitterPort turns an escalated anomaly into an issue. created is false when an
// open issue for the step already existed; that issue is returned instead
type EmitterPort interface {
	Create(ctx context.Context, a anomaly.Anomaly) (iss Issue, created bool, err error)
}

// ReaderPort reads issues
type ReaderPort interface {
	Get(ctx context.Context, id string) (Issue, error)
	List(ctx context.Context, f ListFilter) ([]Issue, error)
}

// PatcherPort holds the independently retriable updates made after creation
type PatcherPort interface {
	AttachDiagnosis(ctx context.Context, id string, d Diagnosis) (Issue, error)
	LinkJira(ctx context.Context, id, ticket string) (Issue, error)
	LinkPR(ctx context.Context, id, url string) (Issue, error)
	Resolve(ctx context.Context, id string) (Issue, error)
}

// StorageRepo is the postgres issue table
type StorageRepo interface {
	// OpenByStep returns the non resolved issue for step or a not found error
	OpenByStep(ctx context.Context, step string) (Issue, error)
	Insert(ctx context.Context, iss Issue) error
	Get(ctx context.Context, id string, forUpdate bool) (Issue, error)
	List(ctx context.Context, f ListFilter) ([]Issue, error)
	Update(ctx context.Context, iss Issue) error
}
