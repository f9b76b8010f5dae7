package main

import (
	"context"
	"flag"

	apporder "github.com/Zhima-Mochi/minishop-fulfillment/internal/application/order"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/config"
	domorder "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/saga"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/httpclient"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/id"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/postgres"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/pkg/service"
	httppresentation "github.com/Zhima-Mochi/minishop-fulfillment/internal/presentation/http"
)

func main() {
	flag.Usage = service.Usage("order-service")
	flag.Parse()

	ctx := context.Background()
	rt, err := service.Boot(ctx, config.Defaults{ServiceName: "order-service", HTTPAddr: ":3002"},
		domorder.OrderCreatedEvent{}.EventName(),
		domorder.OrderStatusChangedEvent{}.EventName(),
	)
	if err != nil {
		service.Fatal("boot_failed", err)
	}
	defer rt.Close(ctx)

	var (
		orders  domorder.Repository = memory.NewOrderRepository()
		sagaLog saga.Log            = memory.NewSagaLog()
	)
	if rt.Pool != nil {
		orders = postgres.NewOrderRepository(rt.Pool)
		sagaLog = postgres.NewSagaLog(rt.Pool)
	}

	svc := rt.Config.Services
	inventory := httpclient.NewInventoryClient(httpclient.Config{BaseURL: svc.ProductURL, Timeout: svc.ClientTimeout}, rt.Tel)
	clients := httpclient.NewClientClient(httpclient.Config{BaseURL: svc.ClientURL, Timeout: svc.ClientTimeout}, rt.Tel)

	handler := httppresentation.NewOrderHandler(
		apporder.NewCreateOrderUseCase(orders, inventory, clients, sagaLog, id.NewUUIDGenerator(), rt.Bus, rt.Tel,
			apporder.CreateOrderConfig{CallTimeout: svc.ClientTimeout}),
		apporder.NewTransitionStatusUseCase(orders, rt.Bus, rt.Tel),
		apporder.NewQueries(orders, sagaLog, rt.Tel),
		rt.Tel.Logger(),
	)
	if err := rt.Serve(ctx, rt.Router(handler)); err != nil {
		rt.Log.Error("serve_failed", observability.F("error", err))
	}
}
