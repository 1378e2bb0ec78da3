package events

import "context"

// Repository port (persistence of scan events)
type Repository interface {
	Insert(ctx context.Context, e *ScanEvent) error
	List(ctx context.Context, f ListFilter) ([]*ScanEvent, error)
	Count(ctx context.Context) (int64, error)
	CountByProject(ctx context.Context) ([]ProjectCount, error)
	CountBySecretType(ctx context.Context) ([]SecretTypeCount, error)
}

// UnitOfWork hands fn a Repository bound to a single transaction.
// The transaction is committed when fn returns nil and rolled back otherwise.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(repo Repository) error) error
}
