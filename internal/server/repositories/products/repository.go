// Package products stores the product catalogue and its stock levels.
package products

import (
	"context"

	"github.com/dmitrijs2005/trackify/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, p *models.Product) (*models.Product, error)
	Update(ctx context.Context, p *models.Product) error
	GetByID(ctx context.Context, id string) (*models.Product, error)
	// GetByName tries an exact match first, then a case-insensitive one.
	GetByName(ctx context.Context, name string) (*models.Product, error)
	List(ctx context.Context) ([]*models.Product, error)
	SetStock(ctx context.Context, id string, stock int) error
	// AdjustStock adds delta; a result below zero is ErrorValidation and
	// leaves the stock unchanged.
	AdjustStock(ctx context.Context, id string, delta int) error
	Delete(ctx context.Context, id string) error
}
