package transactions

import (
	"context"
	"slices"
	"time"

	"github.com/dmitrijs2005/trackify/internal/common"
	"github.com/dmitrijs2005/trackify/internal/server/models"
	"github.com/dmitrijs2005/trackify/internal/server/repositories/memstore"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type InMemoryRepository struct {
	store *memstore.Store
}

func NewInMemoryRepository(store *memstore.Store) *InMemoryRepository {
	return &InMemoryRepository{store: store}
}

func (r *InMemoryRepository) Create(ctx context.Context, t *models.Transaction) (*models.Transaction, error) {
	err := r.store.Update(ctx, func(d *memstore.Data, now time.Time) error {
		if _, ok := d.Users[t.UserID]; !ok {
			return common.ErrorNotFound
		}
		if t.IdempotencyKey != "" {
			for _, existing := range d.Transactions {
				if existing.UserID == t.UserID && existing.IdempotencyKey == t.IdempotencyKey {
					return common.ErrorAlreadyExists
				}
			}
		}
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		t.CreatedAt = now
		d.Transactions[t.ID] = *t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*models.Transaction, error) {
	var (
		t  models.Transaction
		ok bool
	)
	r.store.View(ctx, func(d *memstore.Data) { t, ok = d.Transactions[id] })
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &t, nil
}

func (r *InMemoryRepository) GetByIdempotencyKey(ctx context.Context, userID, key string) (*models.Transaction, error) {
	if key == "" {
		return nil, common.ErrorNotFound
	}
	found := r.filter(ctx, func(t *models.Transaction) bool {
		return t.UserID == userID && t.IdempotencyKey == key
	})
	if len(found) == 0 {
		return nil, common.ErrorNotFound
	}
	return found[0], nil
}

func (r *InMemoryRepository) ListForUser(ctx context.Context, userID string) ([]*models.Transaction, error) {
	return r.filter(ctx, func(t *models.Transaction) bool { return t.UserID == userID }), nil
}

func (r *InMemoryRepository) ListAll(ctx context.Context) ([]*models.Transaction, error) {
	return r.filter(ctx, func(*models.Transaction) bool { return true }), nil
}

// filter returns copies of the matching rows, newest first.
func (r *InMemoryRepository) filter(ctx context.Context, keep func(t *models.Transaction) bool) []*models.Transaction {
	result := make([]*models.Transaction, 0)
	r.store.View(ctx, func(d *memstore.Data) {
		for _, t := range d.Transactions {
			if keep(&t) {
				result = append(result, &t)
			}
		}
	})

	slices.SortFunc(result, func(a, b *models.Transaction) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return result
}

func (r *InMemoryRepository) Delete(ctx context.Context, id string) error {
	return r.store.Update(ctx, func(d *memstore.Data, _ time.Time) error {
		if _, ok := d.Transactions[id]; !ok {
			return common.ErrorNotFound
		}
		delete(d.Transactions, id)
		return nil
	})
}

func (r *InMemoryRepository) DeleteAll(ctx context.Context) error {
	return r.store.Update(ctx, func(d *memstore.Data, _ time.Time) error {
		clear(d.Transactions)
		return nil
	})
}

func (r *InMemoryRepository) Count(ctx context.Context) (int, error) {
	var n int
	r.store.View(ctx, func(d *memstore.Data) { n = len(d.Transactions) })
	return n, nil
}

func (r *InMemoryRepository) SumProfitForUser(ctx context.Context, userID string) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, t := range r.filter(ctx, func(t *models.Transaction) bool { return t.UserID == userID }) {
		sum = sum.Add(t.Profit())
	}
	return sum, nil
}
