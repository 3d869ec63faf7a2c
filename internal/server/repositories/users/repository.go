// Package users declares the user repository contract and its PostgreSQL
// and in-memory implementations.
package users

import (
	"context"

	"github.com/dmitrijs2005/trackify/internal/server/models"
	"github.com/shopspring/decimal"
)

type Repository interface {
	// Create stores user and fills its ID and CreatedAt. A taken user name
	// yields common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUserName(ctx context.Context, userName string) (*models.User, error)
	// GetForUpdate reads the user and locks the row until the surrounding
	// transaction ends.
	GetForUpdate(ctx context.Context, id string) (*models.User, error)
	UpdateBalance(ctx context.Context, id string, balance decimal.Decimal) error
	Delete(ctx context.Context, id string) error
}
