package redisx

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	dominv "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const (
	keyPrefix  = "product:"
	verSuffix  = ":ver"
	defaultTTL = 30 * time.Second
	opTimeout  = 200 * time.Millisecond
)

func NewClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  opTimeout,
		WriteTimeout: opTimeout,
	})
}

type cachedProduct struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	StockQuantity int             `json:"stock_quantity"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// fillScript stores a ledger snapshot only if no write bumped the product
// version since the snapshot's version was read.
const fillScript = `
local v = redis.call('GET', KEYS[2]) or '0'
if v ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`

// ProductRepository is a read-through cache in front of the ledger.
// Reads may be served from Redis; every write goes to the ledger first, then
// bumps the product version and evicts the key, so stock decisions never rely
// on cached values and a fill racing a write is dropped.
type ProductRepository struct {
	next dominv.Repository
	rdb  redis.Cmdable
	ttl  time.Duration
	log  observability.Logger
}

func NewProductRepository(next dominv.Repository, rdb redis.Cmdable, ttl time.Duration, logger observability.Logger) *ProductRepository {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &ProductRepository{next: next, rdb: rdb, ttl: ttl, log: logger.With(observability.F("component", "product_cache"))}
}

func key(id string) string    { return keyPrefix + id }
func verKey(id string) string { return keyPrefix + id + verSuffix }

func (r *ProductRepository) Get(ctx context.Context, id string) (*dominv.Product, error) {
	if p, ok := r.lookup(ctx, id); ok {
		return p, nil
	}
	ver, fenced := r.version(ctx, id)
	p, err := r.next.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if fenced {
		r.store(ctx, p, ver)
	}
	return p, nil
}

func (r *ProductRepository) List(ctx context.Context) ([]*dominv.Product, error) {
	return r.next.List(ctx)
}

func (r *ProductRepository) Insert(ctx context.Context, p *dominv.Product) error {
	if err := r.next.Insert(ctx, p); err != nil {
		return err
	}
	r.evict(ctx, p.ID)
	return nil
}

func (r *ProductRepository) UpdateDetails(ctx context.Context, id string, d dominv.Details) (*dominv.Product, error) {
	p, err := r.next.UpdateDetails(ctx, id, d)
	if err != nil {
		return nil, err
	}
	r.evict(ctx, id)
	return p, nil
}

func (r *ProductRepository) Adjust(ctx context.Context, id string, delta int) (*dominv.Product, error) {
	p, err := r.next.Adjust(ctx, id, delta)
	if err != nil {
		return nil, err
	}
	r.evict(ctx, id)
	return p, nil
}

func (r *ProductRepository) lookup(ctx context.Context, id string) (*dominv.Product, bool) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	raw, err := r.rdb.Get(ctx, key(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.log.Warn("cache_get_failed", observability.F("product_id", id), observability.F("error", err))
		}
		return nil, false
	}
	var c cachedProduct
	if err := json.Unmarshal(raw, &c); err != nil {
		r.evict(ctx, id)
		return nil, false
	}
	return &dominv.Product{
		ID:            c.ID,
		Name:          c.Name,
		UnitPrice:     c.UnitPrice,
		StockQuantity: c.StockQuantity,
		UpdatedAt:     c.UpdatedAt,
	}, true
}

// version reads the write counter for id. A missing counter is "0"; any other
// failure means the fill cannot be fenced and is skipped.
func (r *ProductRepository) version(ctx context.Context, id string) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	v, err := r.rdb.Get(ctx, verKey(id)).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return "0", true
	case err != nil:
		r.log.Warn("cache_version_failed", observability.F("product_id", id), observability.F("error", err))
		return "", false
	}
	return v, true
}

func (r *ProductRepository) store(ctx context.Context, p *dominv.Product, ver string) {
	data, err := json.Marshal(encode(p))
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	stored, err := r.rdb.Eval(ctx, fillScript, []string{key(p.ID), verKey(p.ID)},
		ver, string(data), strconv.FormatInt(r.ttl.Milliseconds(), 10)).Int()
	if err != nil {
		r.log.Warn("cache_set_failed", observability.F("product_id", p.ID), observability.F("error", err))
		return
	}
	if stored == 0 {
		r.log.Debug("cache_fill_skipped", observability.F("product_id", p.ID), observability.F("version", ver))
	}
}

func (r *ProductRepository) evict(ctx context.Context, id string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), opTimeout)
	defer cancel()
	if err := r.rdb.Incr(ctx, verKey(id)).Err(); err != nil {
		r.log.Warn("cache_version_bump_failed", observability.F("product_id", id), observability.F("error", err))
	}
	if err := r.rdb.Del(ctx, key(id)).Err(); err != nil {
		r.log.Warn("cache_evict_failed", observability.F("product_id", id), observability.F("error", err))
	}
}

func encode(p *dominv.Product) cachedProduct {
	return cachedProduct{
		ID:            p.ID,
		Name:          p.Name,
		UnitPrice:     p.UnitPrice,
		StockQuantity: p.StockQuantity,
		UpdatedAt:     p.UpdatedAt,
	}
}
