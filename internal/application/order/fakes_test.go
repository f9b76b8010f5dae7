package order_test

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	domclient "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/client"
	dominv "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/inventory"
	domoutbox "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// ledger is an in-process InventoryClient backed by the memory ledger.
// Hooks let a test inject failures per call.
type ledger struct {
	repo *memory.ProductRepository

	calls        atomic.Int32
	beforeAdjust func(ctx context.Context, productID string, delta int) error
}

func newLedger(t *testing.T, stock map[string]int) *ledger {
	t.Helper()
	var seed []*dominv.Product
	for id, qty := range stock {
		p, err := dominv.NewProduct(id, "Product "+id, decimal.NewFromInt(250), qty)
		require.NoError(t, err)
		seed = append(seed, p)
	}
	return &ledger{repo: memory.NewProductRepository(seed...)}
}

func (l *ledger) GetProduct(ctx context.Context, id string) (*dominv.Product, error) {
	l.calls.Add(1)
	return l.repo.Get(ctx, id)
}

func (l *ledger) AdjustStock(ctx context.Context, id string, delta int) (*dominv.Product, error) {
	l.calls.Add(1)
	if l.beforeAdjust != nil {
		if err := l.beforeAdjust(ctx, id, delta); err != nil {
			return nil, err
		}
	}
	return l.repo.Adjust(ctx, id, delta)
}

func (l *ledger) stock(t *testing.T, id string) int {
	t.Helper()
	p, err := l.repo.Get(context.Background(), id)
	require.NoError(t, err)
	return p.StockQuantity
}

type directory struct {
	calls atomic.Int32
	known map[string]bool
	err   error
}

func (d *directory) GetClient(_ context.Context, id string) (*domclient.Client, error) {
	d.calls.Add(1)
	if d.err != nil {
		return nil, d.err
	}
	if !d.known[id] {
		return nil, domclient.ErrNotFound
	}
	return &domclient.Client{ID: id, Name: "Maria", Email: "maria@example.com"}, nil
}

type ids struct {
	mu sync.Mutex
	n  int
}

func (g *ids) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return "order-" + strconv.Itoa(g.n)
}

type events struct {
	mu  sync.Mutex
	got []domoutbox.Event
}

func (e *events) Publish(_ context.Context, ev domoutbox.Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.got = append(e.got, ev)
	return nil
}

func (e *events) names() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.got))
	for _, ev := range e.got {
		out = append(out, ev.EventName())
	}
	return out
}
