package unitofwork

import "context"

// RepositoryFactory hands out a fresh UnitOfWork per request or
// pipeline run. Units start transaction-free; Begin is explicit.
type RepositoryFactory interface {
	NewUnitOfWork(ctx context.Context) UnitOfWork
}
