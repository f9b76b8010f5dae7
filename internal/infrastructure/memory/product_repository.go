package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	domain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/inventory"
)

// ProductRepository is the in-memory inventory ledger. Adjust holds a
// per-product lock for the whole check-then-apply, so different products
// never contend with each other.
type ProductRepository struct {
	mu       sync.RWMutex
	products map[string]*domain.Product
	locks    sync.Map // product id -> *sync.Mutex
}

func NewProductRepository(seed ...*domain.Product) *ProductRepository {
	r := &ProductRepository{products: make(map[string]*domain.Product, len(seed))}
	for _, p := range seed {
		r.products[p.ID] = p.Clone()
	}
	return r
}

func (r *ProductRepository) Get(ctx context.Context, id string) (*domain.Product, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p.Clone(), nil
}

func (r *ProductRepository) List(ctx context.Context) ([]*domain.Product, error) {
	_ = ctx

	r.mu.RLock()
	out := make([]*domain.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, p.Clone())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *ProductRepository) Insert(ctx context.Context, p *domain.Product) error {
	_ = ctx
	if p == nil || p.ID == "" {
		return fmt.Errorf("product repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.products[p.ID]; exists {
		return domain.ErrConflict
	}
	r.products[p.ID] = p.Clone()
	return nil
}

func (r *ProductRepository) UpdateDetails(ctx context.Context, id string, d domain.Details) (*domain.Product, error) {
	unlock := r.lock(id)
	defer unlock()

	p, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.Name != nil {
		if err := p.Rename(*d.Name); err != nil {
			return nil, err
		}
	}
	if d.UnitPrice != nil {
		if err := p.Reprice(*d.UnitPrice); err != nil {
			return nil, err
		}
	}
	r.store(p)
	return p.Clone(), nil
}

func (r *ProductRepository) Adjust(ctx context.Context, id string, delta int) (*domain.Product, error) {
	unlock := r.lock(id)
	defer unlock()

	p, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := p.ApplyDelta(delta); err != nil {
		return nil, err
	}
	r.store(p)
	return p.Clone(), nil
}

func (r *ProductRepository) lock(id string) func() {
	m, _ := r.locks.LoadOrStore(id, &sync.Mutex{})
	mu := m.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (r *ProductRepository) store(p *domain.Product) {
	r.mu.Lock()
	r.products[p.ID] = p.Clone()
	r.mu.Unlock()
}
