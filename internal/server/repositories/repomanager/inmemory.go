package repomanager

import (
	"context"

	"github.com/dmitrijs2005/trackify/internal/dbx"
	"github.com/dmitrijs2005/trackify/internal/server/repositories/memstore"
	"github.com/dmitrijs2005/trackify/internal/server/repositories/products"
	"github.com/dmitrijs2005/trackify/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/trackify/internal/server/repositories/transactions"
	"github.com/dmitrijs2005/trackify/internal/server/repositories/users"
)

// InMemoryRepositoryManager keeps everything in process memory. The db
// handles passed to the factories are ignored; transaction scope travels
// in the context instead.
type InMemoryRepositoryManager struct {
	store *memstore.Store
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{store: memstore.New()}
}

func (m *InMemoryRepositoryManager) Store() *memstore.Store {
	return m.store
}

func (m *InMemoryRepositoryManager) RunMigrations(context.Context) error { return nil }

func (m *InMemoryRepositoryManager) DB() dbx.DBTX { return nil }

func (m *InMemoryRepositoryManager) WithTx(ctx context.Context, fn dbx.TxFunc) error {
	return m.store.WithTx(ctx, func(ctx context.Context) error {
		return fn(ctx, nil)
	})
}

func (m *InMemoryRepositoryManager) Users(dbx.DBTX) users.Repository {
	return users.NewInMemoryRepository(m.store)
}

func (m *InMemoryRepositoryManager) Transactions(dbx.DBTX) transactions.Repository {
	return transactions.NewInMemoryRepository(m.store)
}

func (m *InMemoryRepositoryManager) Products(dbx.DBTX) products.Repository {
	return products.NewInMemoryRepository(m.store)
}

func (m *InMemoryRepositoryManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository {
	return refreshtokens.NewInMemoryRepository(m.store)
}

func (m *InMemoryRepositoryManager) Close() error { return nil }
