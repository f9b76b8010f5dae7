package observability

import (
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
)

// Telemetry is the Observability one service hands to its handlers, use cases
// and workers. Metric lookups for keys outside the standard set return no-ops.
type Telemetry struct {
	tracer     observability.Tracer
	logger     observability.Logger
	counters   map[observability.MetricKey]observability.Counter
	histograms map[observability.MetricKey]observability.Histogram
}

var _ observability.Observability = (*Telemetry)(nil)

// NewTelemetry registers the standard instruments on reg. A nil reg leaves
// every metric as a no-op, which is what unit tests without a scrape target want.
func NewTelemetry(tracer observability.Tracer, logger observability.Logger, reg prometheus.Registerer) *Telemetry {
	if tracer == nil {
		tracer = observability.NopTracer()
	}
	if logger == nil {
		logger = observability.NopLogger()
	}
	t := &Telemetry{tracer: tracer, logger: logger}
	if reg != nil {
		t.counters, t.histograms = prometrics.Standard(prometrics.New(reg, ""))
	}
	return t
}

func (t *Telemetry) Tracer() observability.Tracer   { return t.tracer }
func (t *Telemetry) Logger() observability.Logger   { return t.logger }
func (t *Telemetry) Metrics() observability.Metrics { return t }

func (t *Telemetry) Counter(name observability.MetricKey) observability.Counter {
	if c := t.counters[name]; c != nil {
		return c
	}
	return observability.NopCounter()
}

func (t *Telemetry) Histogram(name observability.MetricKey) observability.Histogram {
	if h := t.histograms[name]; h != nil {
		return h
	}
	return observability.NopHistogram()
}
