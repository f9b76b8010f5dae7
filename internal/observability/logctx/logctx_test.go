package logctx_test

import (
	"context"
	"testing"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability/logctx"
	"github.com/stretchr/testify/assert"
)

type recordingLogger struct {
	observability.Logger
	fields []observability.Field
}

func (r *recordingLogger) With(fields ...observability.Field) observability.Logger {
	return &recordingLogger{Logger: observability.NopLogger(), fields: append(append([]observability.Field{}, r.fields...), fields...)}
}

func TestFromOrFallsBack(t *testing.T) {
	fallback := &recordingLogger{Logger: observability.NopLogger()}
	assert.Same(t, fallback, logctx.FromOr(context.Background(), fallback))
	assert.NotNil(t, logctx.FromOr(context.Background(), nil))
}

func TestEnrichStacksFields(t *testing.T) {
	base := &recordingLogger{Logger: observability.NopLogger()}
	ctx := logctx.With(context.Background(), base)
	ctx = logctx.Enrich(ctx, nil, observability.F("order_id", "o-1"))

	got, ok := logctx.From(ctx).(*recordingLogger)
	if assert.True(t, ok) {
		assert.Equal(t, []observability.Field{observability.F("order_id", "o-1")}, got.fields)
	}
}
