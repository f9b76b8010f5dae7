package postgres

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	dominv "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/inventory"
	domorder "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/order"
	domsaga "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/saga"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateURL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@db:5432/shop?sslmode=disable", migrateURL("postgres://u:p@db:5432/shop?sslmode=disable"))
	assert.Equal(t, "pgx5://db/shop", migrateURL("postgresql://db/shop"))
	assert.Equal(t, "pgx5://db/shop", migrateURL("pgx5://db/shop"))
}

// testPool connects to TEST_DATABASE_URL and skips when it is unset.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	require.NoError(t, Migrate(url))
	pool, err := Connect(context.Background(), url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestProductAdjustNeverOversells(t *testing.T) {
	pool := testPool(t)
	repo := NewProductRepository(pool)
	ctx := context.Background()

	id := "prod-" + uuid.NewString()
	p, err := dominv.NewProduct(id, "Race", decimal.RequireFromString("19.90"), 10)
	require.NoError(t, err)
	require.NoError(t, repo.Insert(ctx, p))
	assert.ErrorIs(t, repo.Insert(ctx, p), dominv.ErrConflict)

	var wg sync.WaitGroup
	var ok atomic.Int32
	for range 30 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.Adjust(ctx, id, -1); err == nil {
				ok.Add(1)
			} else {
				assert.ErrorIs(t, err, dominv.ErrInsufficientStock)
			}
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 10, ok.Load())

	got, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 0, got.StockQuantity)
	assert.True(t, got.UnitPrice.Equal(decimal.RequireFromString("19.90")))

	_, err = repo.Adjust(ctx, "missing-"+id, -1)
	assert.ErrorIs(t, err, dominv.ErrNotFound)
}

func TestOrderStatusCompareAndSet(t *testing.T) {
	pool := testPool(t)
	repo := NewOrderRepository(pool)
	ctx := context.Background()

	o, err := domorder.New("order-"+uuid.NewString(), "cliente-1", []domorder.LineItem{
		{ProductID: "prod-abc", Quantity: 2, UnitPriceAtOrderTime: decimal.NewFromInt(250)},
		{ProductID: "prod-xyz", Quantity: 1, UnitPriceAtOrderTime: decimal.NewFromInt(100)},
	})
	require.NoError(t, err)
	require.NoError(t, repo.Insert(ctx, o))

	got, err := repo.Get(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, got.LineItems, 2)
	assert.True(t, got.TotalAmount.Equal(decimal.NewFromInt(600)))

	_, err = repo.UpdateStatus(ctx, o.ID, domorder.StatusAwaitingPayment, domorder.StatusPaid)
	require.NoError(t, err)
	_, err = repo.UpdateStatus(ctx, o.ID, domorder.StatusAwaitingPayment, domorder.StatusCancelled)
	assert.ErrorIs(t, err, domorder.ErrConflict)

	list, err := repo.List(ctx, domorder.ListFilter{ClientID: "cliente-1"})
	require.NoError(t, err)
	assert.NotEmpty(t, list)
}

func TestSagaLogKeepsOrder(t *testing.T) {
	pool := testPool(t)
	log := NewSagaLog(pool)
	ctx := context.Background()

	sagaID := "saga-" + uuid.NewString()
	for i, status := range []domsaga.StepStatus{domsaga.StatusApplied, domsaga.StatusFailed, domsaga.StatusCompensated} {
		require.NoError(t, log.Append(ctx, domsaga.Step{
			SagaID: sagaID, Seq: i + 1, ProductID: "prod-abc", Delta: -1,
			Action: domsaga.ActionReserve, Status: status, At: time.Now().UTC(),
		}))
	}
	steps, err := log.List(ctx, sagaID)
	require.NoError(t, err)
	require.Len(t, steps, 3)
	assert.Equal(t, domsaga.StatusCompensated, steps[2].Status)
}
