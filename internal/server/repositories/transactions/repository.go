// Package transactions stores the append-only ledger of sales and wallet
// movements.
package transactions

import (
	"context"

	"github.com/dmitrijs2005/trackify/internal/server/models"
	"github.com/shopspring/decimal"
)

type Repository interface {
	// Create inserts t and fills ID (when empty) and CreatedAt. A repeated
	// idempotency key for the same user yields common.ErrorAlreadyExists.
	Create(ctx context.Context, t *models.Transaction) (*models.Transaction, error)
	GetByID(ctx context.Context, id string) (*models.Transaction, error)
	GetByIdempotencyKey(ctx context.Context, userID, key string) (*models.Transaction, error)
	// ListForUser returns the user's rows newest first.
	ListForUser(ctx context.Context, userID string) ([]*models.Transaction, error)
	ListAll(ctx context.Context) ([]*models.Transaction, error)
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) error
	Count(ctx context.Context) (int, error)
	SumProfitForUser(ctx context.Context, userID string) (decimal.Decimal, error)
}
