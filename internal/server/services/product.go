package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/trackify/internal/common"
	"github.com/dmitrijs2005/trackify/internal/dbx"
	"github.com/dmitrijs2005/trackify/internal/logging"
	"github.com/dmitrijs2005/trackify/internal/server/models"
	"github.com/dmitrijs2005/trackify/internal/server/repositories/repomanager"
	"github.com/shopspring/decimal"
)

// ProductInput carries the editable fields of a catalogue entry.
type ProductInput struct {
	SKU      string
	Name     string
	Category string
	PriceUSD decimal.Decimal
	Stock    int
}

func (in ProductInput) validate() (ProductInput, error) {
	in.SKU = strings.TrimSpace(in.SKU)
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)
	if in.Name == "" {
		return in, fmt.Errorf("%w: name required", common.ErrorValidation)
	}
	if in.PriceUSD.IsNegative() {
		return in, fmt.Errorf("%w: price must not be negative", common.ErrorValidation)
	}
	if in.Stock < 0 {
		return in, fmt.Errorf("%w: stock must not be negative", common.ErrorValidation)
	}
	in.PriceUSD = in.PriceUSD.Round(2)
	return in, nil
}

type ProductService struct {
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewProductService(m repomanager.RepositoryManager, logger logging.Logger) *ProductService {
	return &ProductService{repomanager: m, logger: logger.With("module", "products")}
}

func (s *ProductService) Create(ctx context.Context, in ProductInput) (*models.Product, error) {
	in, err := in.validate()
	if err != nil {
		return nil, err
	}

	p, err := s.repomanager.Products(s.repomanager.DB()).Create(ctx, &models.Product{
		SKU:      in.SKU,
		Name:     in.Name,
		Category: in.Category,
		PriceUSD: in.PriceUSD,
		Stock:    in.Stock,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating product: %w", err)
	}

	s.logger.Info(ctx, "product created", "product_id", p.ID, "name", p.Name)
	return p, nil
}

func (s *ProductService) Update(ctx context.Context, id string, in ProductInput) (*models.Product, error) {
	in, err := in.validate()
	if err != nil {
		return nil, err
	}

	var out *models.Product
	err = s.repomanager.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Products(tx)
		p, err := repo.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("error loading product: %w", err)
		}
		p.SKU, p.Name, p.Category, p.PriceUSD, p.Stock = in.SKU, in.Name, in.Category, in.PriceUSD, in.Stock
		if err := repo.Update(ctx, p); err != nil {
			return fmt.Errorf("error updating product: %w", err)
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ProductService) Get(ctx context.Context, id string) (*models.Product, error) {
	p, err := s.repomanager.Products(s.repomanager.DB()).GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error loading product: %w", err)
	}
	return p, nil
}

// FindByName matches exactly first, then ignoring case.
func (s *ProductService) FindByName(ctx context.Context, name string) (*models.Product, error) {
	p, err := s.repomanager.Products(s.repomanager.DB()).GetByName(ctx, strings.TrimSpace(name))
	if err != nil {
		return nil, fmt.Errorf("error loading product %q: %w", name, err)
	}
	return p, nil
}

func (s *ProductService) List(ctx context.Context) ([]*models.Product, error) {
	ps, err := s.repomanager.Products(s.repomanager.DB()).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing products: %w", err)
	}
	return ps, nil
}

func (s *ProductService) SetStock(ctx context.Context, id string, stock int) error {
	if stock < 0 {
		return fmt.Errorf("%w: stock must not be negative", common.ErrorValidation)
	}
	if err := s.repomanager.Products(s.repomanager.DB()).SetStock(ctx, id, stock); err != nil {
		return fmt.Errorf("error setting stock: %w", err)
	}
	return nil
}

// AdjustStock adds delta to the stock level; it never drops below zero.
func (s *ProductService) AdjustStock(ctx context.Context, id string, delta int) (*models.Product, error) {
	var out *models.Product
	err := s.repomanager.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Products(tx)
		if err := repo.AdjustStock(ctx, id, delta); err != nil {
			return fmt.Errorf("error adjusting stock: %w", err)
		}
		p, err := repo.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("error loading product: %w", err)
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ProductService) Delete(ctx context.Context, id string) error {
	if err := s.repomanager.Products(s.repomanager.DB()).Delete(ctx, id); err != nil {
		return fmt.Errorf("error deleting product: %w", err)
	}
	s.logger.Info(ctx, "product deleted", "product_id", id)
	return nil
}
