package outbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	domoutbox "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type named string

func (n named) EventName() string { return string(n) }

func TestBusFansOutToEverySubscriber(t *testing.T) {
	bus := NewBus(observability.Nop())

	var mu sync.Mutex
	got := map[string]int{}
	record := func(tag string) domoutbox.Handler {
		return func(_ context.Context, e domoutbox.Event) error {
			mu.Lock()
			got[tag+":"+e.EventName()]++
			mu.Unlock()
			return nil
		}
	}
	bus.Subscribe("order.created", record("audit"))
	bus.Subscribe("order.created", record("kafka"))
	bus.Subscribe("order.status_changed", func(context.Context, domoutbox.Event) error {
		return errors.New("handler failure is logged, not propagated")
	})
	bus.Subscribe("order.status_changed", func(context.Context, domoutbox.Event) error {
		panic("recovered")
	})

	bus.Start(context.Background())
	require.NoError(t, bus.Publish(context.Background(), named("order.created")))
	require.NoError(t, bus.Publish(context.Background(), named("order.status_changed")))
	require.NoError(t, bus.Publish(context.Background(), named("nobody.listens")))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, bus.Stop(ctx))

	assert.Equal(t, map[string]int{"audit:order.created": 1, "kafka:order.created": 1}, got)
}

func TestPublishAfterStop(t *testing.T) {
	bus := NewBus(nil)
	bus.Start(context.Background())
	require.NoError(t, bus.Stop(context.Background()))

	assert.ErrorIs(t, bus.Publish(context.Background(), named("x")), ErrStopped)
	assert.NoError(t, bus.Stop(context.Background()))
}

func TestStopWithoutStart(t *testing.T) {
	bus := NewBus(nil)
	require.NoError(t, bus.Publish(context.Background(), named("x")))
	assert.NoError(t, bus.Stop(context.Background()))
}

func TestPublishHonoursContextWhenQueueFull(t *testing.T) {
	bus := NewBus(nil, WithQueueSize(1))
	require.NoError(t, bus.Publish(context.Background(), named("a")))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, bus.Publish(ctx, named("b")), context.DeadlineExceeded)
}
