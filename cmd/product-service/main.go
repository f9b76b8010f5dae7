package main

import (
	"context"
	"errors"
	"flag"

	appinv "github.com/Zhima-Mochi/minishop-fulfillment/internal/application/inventory"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/config"
	dominv "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/id"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/postgres"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/redisx"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/pkg/service"
	httppresentation "github.com/Zhima-Mochi/minishop-fulfillment/internal/presentation/http"
	"github.com/shopspring/decimal"
)

func main() {
	flag.Usage = service.Usage("product-service")
	flag.Parse()

	ctx := context.Background()
	rt, err := service.Boot(ctx, config.Defaults{ServiceName: "product-service", HTTPAddr: ":3001"},
		dominv.StockAdjustedEvent{}.EventName(),
	)
	if err != nil {
		service.Fatal("boot_failed", err)
	}
	defer rt.Close(ctx)

	var repo dominv.Repository = memory.NewProductRepository()
	if rt.Pool != nil {
		repo = postgres.NewProductRepository(rt.Pool)
	}
	if rt.Config.SeedData {
		seed(ctx, repo, rt.Log)
	}
	if addr := rt.Config.Redis.Addr; addr != "" {
		rdb := redisx.NewClient(addr)
		rt.OnClose(func(context.Context) error { return rdb.Close() })
		repo = redisx.NewProductRepository(repo, rdb, rt.Config.Redis.TTL, rt.Log)
		rt.Log.Info("product_cache_enabled", observability.F("redis_addr", addr))
	}

	handler := httppresentation.NewProductHandler(
		appinv.NewAdjustStockUseCase(repo, rt.Bus, rt.Tel),
		appinv.NewGetProductUseCase(repo, rt.Tel),
		appinv.NewCatalog(repo, id.NewUUIDGenerator(), rt.Tel),
		rt.Tel.Logger(),
	)
	if err := rt.Serve(ctx, rt.Router(handler)); err != nil {
		rt.Log.Error("serve_failed", observability.F("error", err))
	}
}

func seed(ctx context.Context, repo dominv.Repository, log observability.Logger) {
	products := []struct {
		id, name string
		price    int64
		stock    int
	}{
		{"prod-abc", "Produto ABC", 250, 10},
		{"prod-xyz", "Produto XYZ", 100, 5},
	}
	for _, s := range products {
		p, err := dominv.NewProduct(s.id, s.name, decimal.NewFromInt(s.price), s.stock)
		if err == nil {
			err = repo.Insert(ctx, p)
		}
		if err != nil && !errors.Is(err, dominv.ErrConflict) {
			log.Warn("seed_failed", observability.F("product_id", s.id), observability.F("error", err))
		}
	}
}
