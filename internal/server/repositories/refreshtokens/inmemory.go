package refreshtokens

import (
	"context"
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

func (r *InMemoryRepository) Create(ctx context.Context, userID string, token string, validity time.Duration) error {
	return r.store.Update(ctx, func(d *memstore.Data, now time.Time) error {
		if _, ok := d.Users[userID]; !ok {
			return common.ErrorNotFound
		}
		if _, ok := d.RefreshTokens[token]; ok {
			return common.ErrorAlreadyExists
		}
		d.RefreshTokens[token] = models.RefreshToken{
			ID:        uuid.NewString(),
			UserID:    userID,
			Token:     token,
			Expires:   now.Add(validity),
			CreatedAt: now,
		}
		return nil
	})
}

func (r *InMemoryRepository) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	var (
		rt models.RefreshToken
		ok bool
	)
	r.store.View(ctx, func(d *memstore.Data) { rt, ok = d.RefreshTokens[token] })
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &rt, nil
}

func (r *InMemoryRepository) Delete(ctx context.Context, token string) error {
	return r.store.Update(ctx, func(d *memstore.Data, _ time.Time) error {
		delete(d.RefreshTokens, token)
		return nil
	})
}
