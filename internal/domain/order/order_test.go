package order_test

import (
	"testing"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/order"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func items() []order.LineItem {
	return []order.LineItem{
		{ProductID: "prod-abc", Quantity: 2, UnitPriceAtOrderTime: decimal.NewFromInt(250)},
		{ProductID: "prod-xyz", Quantity: 3, UnitPriceAtOrderTime: decimal.RequireFromString("19.99")},
	}
}

func TestNewComputesTotal(t *testing.T) {
	o, err := order.New("o-1", "cliente-1", items())
	require.NoError(t, err)

	assert.Equal(t, order.StatusAwaitingPayment, o.Status)
	assert.True(t, o.TotalAmount.Equal(decimal.RequireFromString("559.97")), o.TotalAmount.String())
	assert.True(t, o.TotalAmount.Equal(o.ComputeTotal()))
}

func TestNewRejectsInvalidInput(t *testing.T) {
	_, err := order.New("o", "", items())
	assert.ErrorIs(t, err, order.ErrClientRequired)

	_, err = order.New("o", "c", nil)
	assert.ErrorIs(t, err, order.ErrEmptyOrder)

	_, err = order.New("o", "c", []order.LineItem{{ProductID: "p", Quantity: 0}})
	assert.ErrorIs(t, err, order.ErrInvalidQuantity)

	_, err = order.New("o", "c", []order.LineItem{{Quantity: 1}})
	assert.ErrorIs(t, err, order.ErrProductRequired)

	_, err = order.New("o", "c", []order.LineItem{{ProductID: "p", Quantity: 1, UnitPriceAtOrderTime: decimal.NewFromInt(-1)}})
	assert.ErrorIs(t, err, order.ErrInvalidPrice)
}

func TestNewCopiesLineItems(t *testing.T) {
	in := items()
	o, err := order.New("o-1", "c", in)
	require.NoError(t, err)

	in[0].Quantity = 100
	assert.Equal(t, 2, o.LineItems[0].Quantity)
}

func TestTransitions(t *testing.T) {
	tests := []struct {
		name    string
		path    []order.Status
		want    order.Status
		wantErr bool
	}{
		{name: "pay", path: []order.Status{order.StatusPaid}, want: order.StatusPaid},
		{name: "cancel", path: []order.Status{order.StatusCancelled}, want: order.StatusCancelled},
		{name: "paid is terminal", path: []order.Status{order.StatusPaid, order.StatusCancelled}, want: order.StatusPaid, wantErr: true},
		{name: "cancelled is terminal", path: []order.Status{order.StatusCancelled, order.StatusPaid}, want: order.StatusCancelled, wantErr: true},
		{name: "duplicate settlement", path: []order.Status{order.StatusPaid, order.StatusPaid}, want: order.StatusPaid, wantErr: true},
		{name: "no backward move", path: []order.Status{order.StatusAwaitingPayment}, want: order.StatusAwaitingPayment, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := order.New("o-1", "c", items())
			require.NoError(t, err)

			var last error
			for _, s := range tt.path {
				last = o.TransitionTo(s)
			}
			if tt.wantErr {
				assert.ErrorIs(t, last, order.ErrInvalidTransition)
			} else {
				assert.NoError(t, last)
			}
			assert.Equal(t, tt.want, o.Status)
		})
	}
}

func TestParseStatus(t *testing.T) {
	s, err := order.ParseStatus(" paid ")
	require.NoError(t, err)
	assert.Equal(t, order.StatusPaid, s)
	assert.True(t, s.Terminal())

	_, err = order.ParseStatus("SHIPPED")
	assert.ErrorIs(t, err, order.ErrUnknownStatus)
	assert.False(t, order.StatusAwaitingPayment.Terminal())
}
