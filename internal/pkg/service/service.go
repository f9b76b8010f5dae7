// Package service holds the process bootstrap shared by the service binaries:
// configuration, telemetry, optional Postgres, the event bus and the HTTP server.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/config"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/kafka"
	infraobs "github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/outbox"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/postgres"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	httppresentation "github.com/Zhima-Mochi/minishop-fulfillment/internal/presentation/http"
	workerpresentation "github.com/Zhima-Mochi/minishop-fulfillment/internal/presentation/worker"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// Runtime is one running service process.
type Runtime struct {
	Config *config.Config
	Tel    observability.Observability
	// Log is the system logger for lines emitted outside any request.
	Log observability.Logger
	Bus *outbox.Bus
	// Pool is nil when the service keeps its state in memory.
	Pool *pgxpool.Pool

	stack   *infraobs.Stack
	closers []func(context.Context) error
}

// Boot loads configuration and brings up telemetry, storage and the event bus.
// events lists the domain events this service emits; each is audited and, when
// brokers are configured, forwarded to Kafka.
func Boot(ctx context.Context, d config.Defaults, events ...string) (*Runtime, error) {
	cfg, err := config.Load(d)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	stack, err := infraobs.Setup(ctx, infraobs.Options{
		Service:      cfg.ServiceName,
		Env:          cfg.Env,
		LogLevel:     cfg.LogLevel,
		LogFile:      cfg.LogFile,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("setup observability: %w", err)
	}
	zap.ReplaceGlobals(stack.Zap)

	rt := &Runtime{
		Config: cfg,
		Tel:    stack.Observability,
		Log:    zaplogger.WithTrace(stack.Observability.Logger(), zaplogger.SystemTraceID, zaplogger.SystemSpanID),
		stack:  stack,
	}

	if cfg.Postgres.URL != "" {
		if err := postgres.Migrate(cfg.Postgres.URL); err != nil {
			rt.Close(ctx)
			return nil, fmt.Errorf("migrate: %w", err)
		}
		pool, err := postgres.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			rt.Close(ctx)
			return nil, err
		}
		rt.Pool = pool
		rt.Log.Info("storage_ready", observability.F("backend", "postgres"))
	} else {
		rt.Log.Info("storage_ready", observability.F("backend", "memory"))
	}

	rt.Bus = outbox.NewBus(rt.Tel)
	workerpresentation.NewAuditTrail(cfg.ServiceName, rt.Tel).Subscribe(rt.Bus, events...)
	if cfg.KafkaEnabled() {
		pub := kafka.NewPublisher(kafka.NewWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic), cfg.ServiceName, rt.Tel)
		for _, name := range events {
			rt.Bus.Subscribe(name, pub.Handler())
		}
		rt.OnClose(func(context.Context) error { return pub.Close() })
		rt.Log.Info("kafka_publisher_ready",
			observability.F("brokers", cfg.Kafka.Brokers),
			observability.F("topic", cfg.Kafka.Topic),
		)
	}
	rt.Bus.Start(ctx)
	return rt, nil
}

// OnClose registers fn to run during Close, in reverse registration order.
func (rt *Runtime) OnClose(fn func(context.Context) error) {
	rt.closers = append(rt.closers, fn)
}

// Router builds the service router with /health and /metrics attached.
func (rt *Runtime) Router(routes ...httppresentation.Routes) http.Handler {
	return httppresentation.NewRouter(httppresentation.RouterConfig{
		Service:       rt.Config.ServiceName,
		Observability: rt.Tel,
		Gatherer:      rt.stack.Registry,
	}, routes...)
}

// Serve runs the HTTP server until SIGINT/SIGTERM or ctx is done, then shuts
// it down gracefully.
func (rt *Runtime) Serve(ctx context.Context, h http.Handler) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := &http.Server{
		Addr:              rt.Config.HTTPAddr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		rt.Log.Info("http_server_start", observability.F("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			rt.Log.Error("http_server_error", observability.F("error", err))
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		rt.Log.Error("http_server_shutdown_error", observability.F("error", err))
		return err
	}
	rt.Log.Info("http_server_stopped")
	return nil
}

// Close drains the bus, runs the registered closers and flushes telemetry.
func (rt *Runtime) Close(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if rt.Bus != nil {
		if err := rt.Bus.Stop(ctx); err != nil {
			rt.Log.Warn("event_bus_stop_failed", observability.F("error", err))
		}
	}
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](ctx); err != nil {
			rt.Log.Warn("shutdown_step_failed", observability.F("error", err))
		}
	}
	if rt.Pool != nil {
		rt.Pool.Close()
	}
	_ = rt.stack.Close(ctx)
}

// Fatal reports err and exits. Before Boot has installed a logger the global
// zap logger is a no-op, so the error also goes to stderr.
func Fatal(msg string, err error) {
	zap.L().Error(msg, zap.Error(err))
	_ = zap.L().Sync()
	fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	os.Exit(1)
}

// Usage prints the flag defaults followed by the environment variables Load reads.
func Usage(name string) func() {
	return func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n\n%s\n", name, config.Help())
	}
}
