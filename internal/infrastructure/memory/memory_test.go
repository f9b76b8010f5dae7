package memory_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProduct(t *testing.T, id string, stock int) *inventory.Product {
	t.Helper()
	p, err := inventory.NewProduct(id, id, decimal.NewFromInt(10), stock)
	require.NoError(t, err)
	return p
}

func TestProductRepositoryConcurrentAdjustNeverOversells(t *testing.T) {
	repo := memory.NewProductRepository(newProduct(t, "A", 10))

	var ok, short atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Adjust(context.Background(), "A", -1)
			switch {
			case err == nil:
				ok.Add(1)
			case assert.ErrorIs(t, err, inventory.ErrInsufficientStock):
				short.Add(1)
			}
		}()
	}
	wg.Wait()

	p, err := repo.Get(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, int32(10), ok.Load())
	assert.Equal(t, int32(40), short.Load())
	assert.Equal(t, 0, p.StockQuantity)
}

func TestProductRepositoryAdjustUnknown(t *testing.T) {
	repo := memory.NewProductRepository()
	_, err := repo.Adjust(context.Background(), "missing", -1)
	assert.ErrorIs(t, err, inventory.ErrNotFound)
}

func TestProductRepositoryReturnsCopies(t *testing.T) {
	repo := memory.NewProductRepository(newProduct(t, "A", 3))

	p, err := repo.Get(context.Background(), "A")
	require.NoError(t, err)
	p.StockQuantity = 1000

	again, err := repo.Get(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, 3, again.StockQuantity)
}

func TestProductRepositoryUpdateDetailsKeepsStock(t *testing.T) {
	repo := memory.NewProductRepository(newProduct(t, "A", 3))
	name := "renamed"
	price := decimal.NewFromInt(99)

	p, err := repo.UpdateDetails(context.Background(), "A", inventory.Details{Name: &name, UnitPrice: &price})
	require.NoError(t, err)
	assert.Equal(t, "renamed", p.Name)
	assert.Equal(t, 3, p.StockQuantity)

	require.ErrorIs(t, repo.Insert(context.Background(), newProduct(t, "A", 1)), inventory.ErrConflict)
}

func TestOrderRepositoryUpdateStatusIsCompareAndSet(t *testing.T) {
	repo := memory.NewOrderRepository()
	o, err := order.New("o-1", "c-1", []order.LineItem{{ProductID: "A", Quantity: 1, UnitPriceAtOrderTime: decimal.NewFromInt(1)}})
	require.NoError(t, err)
	require.NoError(t, repo.Insert(context.Background(), o))
	require.ErrorIs(t, repo.Insert(context.Background(), o), order.ErrConflict)

	updated, err := repo.UpdateStatus(context.Background(), "o-1", order.StatusAwaitingPayment, order.StatusPaid)
	require.NoError(t, err)
	assert.Equal(t, order.StatusPaid, updated.Status)

	_, err = repo.UpdateStatus(context.Background(), "o-1", order.StatusAwaitingPayment, order.StatusCancelled)
	assert.ErrorIs(t, err, order.ErrConflict)

	_, err = repo.UpdateStatus(context.Background(), "nope", order.StatusAwaitingPayment, order.StatusPaid)
	assert.ErrorIs(t, err, order.ErrNotFound)

	list, err := repo.List(context.Background(), order.ListFilter{ClientID: "c-1"})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	list, err = repo.List(context.Background(), order.ListFilter{ClientID: "other"})
	require.NoError(t, err)
	assert.Empty(t, list)
}
