package unitofwork

import (
	"context"

	"gorm.io/gorm"
)

type RepositoryFactoryImpl struct {
	db *gorm.DB
}

func NewRepositoryFactory(db *gorm.DB) RepositoryFactory {
	return &RepositoryFactoryImpl{db: db}
}

// NewUnitOfWork binds a unit to the shared connection pool. Reads run
// on the pool directly; Begin swaps in a transaction handle for the
// write sequences that need one.
func (f *RepositoryFactoryImpl) NewUnitOfWork(_ context.Context) UnitOfWork {
	return NewUnitOfWork(f.db)
}
