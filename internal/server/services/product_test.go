package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/dmitrijs2005/trackify/internal/common"
	"github.com/dmitrijs2005/trackify/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProductService(t *testing.T) *ProductService {
	t.Helper()
	return NewProductService(newMemoryManager(t), logging.Nop())
}

func TestProductService_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	s := newProductService(t)

	p, err := s.Create(ctx, ProductInput{SKU: " SKU-1 ", Name: " Green Tea ", Category: "drinks", PriceUSD: dec("3.499"), Stock: 4})
	require.NoError(t, err)
	assert.Equal(t, "SKU-1", p.SKU)
	assert.Equal(t, "Green Tea", p.Name)
	assert.True(t, dec("3.5").Equal(p.PriceUSD))

	got, err := s.FindByName(ctx, "green tea")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	got, err = s.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Stock)

	_, err = s.FindByName(ctx, "coffee")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestProductService_Validation(t *testing.T) {
	s := newProductService(t)

	for _, in := range []ProductInput{
		{Name: "  "},
		{Name: "x", PriceUSD: dec("-1")},
		{Name: "x", Stock: -1},
	} {
		_, err := s.Create(context.Background(), in)
		assert.ErrorIs(t, err, common.ErrorValidation)
	}
}

func TestProductService_UpdateListDelete(t *testing.T) {
	ctx := context.Background()
	s := newProductService(t)

	b, err := s.Create(ctx, ProductInput{Name: "B", PriceUSD: dec("1")})
	require.NoError(t, err)
	_, err = s.Create(ctx, ProductInput{Name: "A", PriceUSD: dec("2")})
	require.NoError(t, err)

	updated, err := s.Update(ctx, b.ID, ProductInput{Name: "C", PriceUSD: dec("9"), Stock: 2})
	require.NoError(t, err)
	assert.Equal(t, "C", updated.Name)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "A", list[0].Name)
	assert.Equal(t, "C", list[1].Name)

	require.NoError(t, s.Delete(ctx, b.ID))
	_, err = s.Get(ctx, b.ID)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = s.Update(ctx, b.ID, ProductInput{Name: "Z"})
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestProductService_Stock(t *testing.T) {
	ctx := context.Background()
	s := newProductService(t)

	p, err := s.Create(ctx, ProductInput{Name: "Mug", PriceUSD: dec("5"), Stock: 1})
	require.NoError(t, err)

	require.NoError(t, s.SetStock(ctx, p.ID, 10))
	assert.ErrorIs(t, s.SetStock(ctx, p.ID, -1), common.ErrorValidation)

	got, err := s.AdjustStock(ctx, p.ID, -4)
	require.NoError(t, err)
	assert.Equal(t, 6, got.Stock)

	_, err = s.AdjustStock(ctx, p.ID, -7)
	assert.ErrorIs(t, err, common.ErrorValidation)

	stored, err := s.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, stored.Stock)
}

func TestProductService_ConcurrentDecrementsStopAtZero(t *testing.T) {
	ctx := context.Background()
	s := newProductService(t)

	p, err := s.Create(ctx, ProductInput{Name: "Rice", PriceUSD: dec("1"), Stock: 5})
	require.NoError(t, err)

	var (
		wg       sync.WaitGroup
		taken    atomic.Int32
		rejected atomic.Int32
	)
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.AdjustStock(ctx, p.ID, -1)
			switch {
			case err == nil:
				taken.Add(1)
			case errors.Is(err, common.ErrorValidation):
				rejected.Add(1)
			default:
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 5, taken.Load())
	assert.EqualValues(t, 7, rejected.Load())

	stored, err := s.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Zero(t, stored.Stock)
}
