package users

import (
	"context"
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

func (r *InMemoryRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	err := r.store.Update(ctx, func(d *memstore.Data, now time.Time) error {
		for _, u := range d.Users {
			if u.UserName == user.UserName {
				return common.ErrorAlreadyExists
			}
		}
		user.ID = uuid.NewString()
		user.CreatedAt = now
		d.Users[user.ID] = *user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var (
		u  models.User
		ok bool
	)
	r.store.View(ctx, func(d *memstore.Data) { u, ok = d.Users[id] })
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

func (r *InMemoryRepository) GetByUserName(ctx context.Context, userName string) (*models.User, error) {
	var found *models.User
	r.store.View(ctx, func(d *memstore.Data) {
		for _, u := range d.Users {
			if u.UserName == userName {
				found = &u
				return
			}
		}
	})
	if found == nil {
		return nil, common.ErrorNotFound
	}
	return found, nil
}

// GetForUpdate needs no row lock: the store already serialises writers.
func (r *InMemoryRepository) GetForUpdate(ctx context.Context, id string) (*models.User, error) {
	return r.GetByID(ctx, id)
}

func (r *InMemoryRepository) UpdateBalance(ctx context.Context, id string, balance decimal.Decimal) error {
	return r.store.Update(ctx, func(d *memstore.Data, _ time.Time) error {
		u, ok := d.Users[id]
		if !ok {
			return common.ErrorNotFound
		}
		u.Balance = balance
		d.Users[id] = u
		return nil
	})
}

func (r *InMemoryRepository) Delete(ctx context.Context, id string) error {
	return r.store.Update(ctx, func(d *memstore.Data, _ time.Time) error {
		if _, ok := d.Users[id]; !ok {
			return common.ErrorNotFound
		}
		delete(d.Users, id)
		for k, t := range d.Transactions {
			if t.UserID == id {
				delete(d.Transactions, k)
			}
		}
		for k, t := range d.RefreshTokens {
			if t.UserID == id {
				delete(d.RefreshTokens, k)
			}
		}
		return nil
	})
}
