package main

import (
	"context"
	"flag"

	appclient "github.com/Zhima-Mochi/minishop-fulfillment/internal/application/client"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/config"
	domclient "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/client"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/id"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/postgres"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/pkg/service"
	httppresentation "github.com/Zhima-Mochi/minishop-fulfillment/internal/presentation/http"
)

func main() {
	flag.Usage = service.Usage("client-service")
	flag.Parse()

	ctx := context.Background()
	rt, err := service.Boot(ctx, config.Defaults{ServiceName: "client-service", HTTPAddr: ":3004"})
	if err != nil {
		service.Fatal("boot_failed", err)
	}
	defer rt.Close(ctx)

	var (
		clients       domclient.Repository             = memory.NewClientRepository()
		notifications domclient.NotificationRepository = memory.NewNotificationRepository()
	)
	if rt.Pool != nil {
		clients = postgres.NewClientRepository(rt.Pool)
		notifications = postgres.NewNotificationRepository(rt.Pool)
	}
	if rt.Config.SeedData {
		maria, err := domclient.New("cliente-1", "Maria", "maria@example.com")
		if err == nil {
			err = clients.Insert(ctx, maria)
		}
		if err != nil {
			rt.Log.Warn("seed_failed", observability.F("client_id", "cliente-1"), observability.F("error", err))
		}
	}

	dir := appclient.NewDirectory(clients, notifications, id.NewUUIDGenerator(), rt.Tel)
	if err := rt.Serve(ctx, rt.Router(httppresentation.NewClientHandler(dir, rt.Tel.Logger()))); err != nil {
		rt.Log.Error("serve_failed", observability.F("error", err))
	}
}
