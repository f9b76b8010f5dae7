package observability

import (
	"context"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/observability/oteltrace"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

type Options struct {
	Service      string
	Env          string
	LogLevel     string
	LogFile      string
	OTLPEndpoint string
}

// Stack is everything one service process needs to report telemetry.
type Stack struct {
	Observability observability.Observability
	Registry      *prometheus.Registry
	Zap           *zap.Logger

	shutdownTracer func(context.Context) error
}

// Setup builds the logger, a private Prometheus registry with the standard
// metrics and the global tracer provider.
func Setup(ctx context.Context, opts Options) (*Stack, error) {
	logger, base := zaplogger.New(zaplogger.Options{
		Service: opts.Service,
		Env:     opts.Env,
		Level:   opts.LogLevel,
		File:    opts.LogFile,
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	shutdown, err := oteltrace.InitProvider(ctx, oteltrace.ProviderOptions{
		Service:  opts.Service,
		Env:      opts.Env,
		Endpoint: opts.OTLPEndpoint,
	})
	if err != nil {
		return nil, err
	}

	return &Stack{
		Observability:  NewTelemetry(oteltrace.New(opts.Service), logger, reg),
		Registry:       reg,
		Zap:            base,
		shutdownTracer: shutdown,
	}, nil
}

// Close flushes spans and buffered log entries.
func (s *Stack) Close(ctx context.Context) error {
	var err error
	if s.shutdownTracer != nil {
		err = s.shutdownTracer(ctx)
	}
	_ = s.Zap.Sync()
	return err
}
