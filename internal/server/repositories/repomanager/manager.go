// Package repomanager vends repositories bound to a database handle and
// owns the transaction boundary for the selected storage backend.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/trackify/internal/dbx"
	"github.com/dmitrijs2005/trackify/internal/server/repositories/products"
	"github.com/dmitrijs2005/trackify/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/trackify/internal/server/repositories/transactions"
	"github.com/dmitrijs2005/trackify/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(ctx context.Context) error

	// DB is the non-transactional handle; nil for backends without one.
	DB() dbx.DBTX

	// WithTx runs fn atomically. Repositories built from tx see the
	// uncommitted state; everything fn wrote is discarded if it fails.
	WithTx(ctx context.Context, fn dbx.TxFunc) error

	Users(db dbx.DBTX) users.Repository
	Transactions(db dbx.DBTX) transactions.Repository
	Products(db dbx.DBTX) products.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository

	Close() error
}
