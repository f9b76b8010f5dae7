package observability

import (
	"context"
	"testing"

	obs "github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTelemetryWithoutRegistryIsNop(t *testing.T) {
	p := NewTelemetry(nil, nil, nil)

	assert.NotNil(t, p.Tracer())
	assert.NotNil(t, p.Logger())
	assert.NotPanics(t, func() {
		p.Metrics().Counter(obs.MUsecaseRequests).Add(1)
		p.Metrics().Histogram("unknown").Observe(1)
	})
}

func TestNewTelemetryRegistersStandardSet(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewTelemetry(nil, nil, reg)

	p.Metrics().Counter(obs.MSagaCompensations).Add(1, obs.L("outcome", "compensated"))
	p.Metrics().Counter("not_registered").Add(1)

	families, err := reg.Gather()
	require.NoError(t, err)
	values := make(map[string]float64, len(families))
	for _, f := range families {
		for _, m := range f.GetMetric() {
			values[f.GetName()] += m.GetCounter().GetValue()
		}
	}
	assert.Equal(t, 1.0, values["saga_compensations_total"])
	assert.NotContains(t, values, "not_registered")
}

func TestSetupRegistersStandardMetrics(t *testing.T) {
	stack, err := Setup(context.Background(), Options{Service: "product-service", Env: "test", LogLevel: "error"})
	require.NoError(t, err)
	defer func() { _ = stack.Close(context.Background()) }()

	stack.Observability.Metrics().Counter(obs.MDomainEvents).Add(1, obs.L("event", "order.created"))

	families, err := stack.Registry.Gather()
	require.NoError(t, err)
	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["domain_events_total"])
}
