package main

import (
	"context"
	"flag"

	apppay "github.com/Zhima-Mochi/minishop-fulfillment/internal/application/payment"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/config"
	dompay "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/httpclient"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/id"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/postgres"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/pkg/service"
	httppresentation "github.com/Zhima-Mochi/minishop-fulfillment/internal/presentation/http"
)

func main() {
	flag.Usage = service.Usage("payment-service")
	flag.Parse()

	ctx := context.Background()
	rt, err := service.Boot(ctx, config.Defaults{ServiceName: "payment-service", HTTPAddr: ":3003"})
	if err != nil {
		service.Fatal("boot_failed", err)
	}
	defer rt.Close(ctx)

	var attempts dompay.Repository = memory.NewPaymentRepository()
	if rt.Pool != nil {
		attempts = postgres.NewPaymentRepository(rt.Pool)
	}

	svc := rt.Config.Services
	orders := httpclient.NewOrderClient(httpclient.Config{BaseURL: svc.OrderURL, Timeout: svc.ClientTimeout}, rt.Tel)
	notifier := httpclient.NewClientClient(httpclient.Config{BaseURL: svc.ClientURL, Timeout: svc.ClientTimeout}, rt.Tel)
	policy := dompay.NewRandomPolicy(rt.Config.Payment.ApprovalRate, rt.Config.Payment.Seed)

	settle := apppay.NewSettleUseCase(orders, attempts, policy, notifier, id.NewUUIDGenerator(), rt.Tel,
		apppay.SettleConfig{CallTimeout: svc.ClientTimeout, NotifyTimeout: svc.ClientTimeout})
	// Notifications are fire-and-forget; give in-flight ones a chance before exit.
	rt.OnClose(settle.Drain)

	handler := httppresentation.NewPaymentHandler(settle, apppay.NewListAttemptsUseCase(attempts, rt.Tel), rt.Tel.Logger())
	if err := rt.Serve(ctx, rt.Router(handler)); err != nil {
		rt.Log.Error("serve_failed", observability.F("error", err))
	}
}
