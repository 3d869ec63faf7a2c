package products

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dmitrijs2005/trackify/internal/common"
	"github.com/dmitrijs2005/trackify/internal/server/models"
	"github.com/dmitrijs2005/trackify/internal/server/repositories/memstore"
	"github.com/google/uuid"
)

type InMemoryRepository struct {
	store *memstore.Store
}

func NewInMemoryRepository(store *memstore.Store) *InMemoryRepository {
	return &InMemoryRepository{store: store}
}

func (r *InMemoryRepository) Create(ctx context.Context, p *models.Product) (*models.Product, error) {
	err := r.store.Update(ctx, func(d *memstore.Data, now time.Time) error {
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		p.CreatedAt = now
		d.Products[p.ID] = *p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *InMemoryRepository) Update(ctx context.Context, p *models.Product) error {
	return r.modify(ctx, p.ID, func(stored *models.Product) error {
		created := stored.CreatedAt
		*stored = *p
		stored.CreatedAt = created
		return nil
	})
}

func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	var (
		p  models.Product
		ok bool
	)
	r.store.View(ctx, func(d *memstore.Data) { p, ok = d.Products[id] })
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &p, nil
}

func (r *InMemoryRepository) GetByName(ctx context.Context, name string) (*models.Product, error) {
	all, _ := r.List(ctx)
	slices.SortFunc(all, func(a, b *models.Product) int { return a.CreatedAt.Compare(b.CreatedAt) })

	for _, p := range all {
		if p.Name == name {
			return p, nil
		}
	}
	for _, p := range all {
		if strings.EqualFold(p.Name, name) {
			return p, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *InMemoryRepository) List(ctx context.Context) ([]*models.Product, error) {
	result := make([]*models.Product, 0)
	r.store.View(ctx, func(d *memstore.Data) {
		for _, p := range d.Products {
			result = append(result, &p)
		}
	})
	slices.SortFunc(result, func(a, b *models.Product) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return result, nil
}

func (r *InMemoryRepository) SetStock(ctx context.Context, id string, stock int) error {
	return r.modify(ctx, id, func(p *models.Product) error {
		p.Stock = stock
		return nil
	})
}

func (r *InMemoryRepository) AdjustStock(ctx context.Context, id string, delta int) error {
	return r.modify(ctx, id, func(p *models.Product) error {
		if p.Stock+delta < 0 {
			return fmt.Errorf("%w: only %d in stock", common.ErrorValidation, p.Stock)
		}
		p.Stock += delta
		return nil
	})
}

func (r *InMemoryRepository) Delete(ctx context.Context, id string) error {
	return r.store.Update(ctx, func(d *memstore.Data, _ time.Time) error {
		if _, ok := d.Products[id]; !ok {
			return common.ErrorNotFound
		}
		delete(d.Products, id)
		return nil
	})
}

func (r *InMemoryRepository) modify(ctx context.Context, id string, fn func(p *models.Product) error) error {
	return r.store.Update(ctx, func(d *memstore.Data, _ time.Time) error {
		p, ok := d.Products[id]
		if !ok {
			return common.ErrorNotFound
		}
		if err := fn(&p); err != nil {
			return err
		}
		d.Products[id] = p
		return nil
	})
}
