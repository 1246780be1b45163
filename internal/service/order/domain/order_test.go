// internal/service/order/domain/order_test.go
package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusDelivered, false},
		{StatusConfirmed, StatusShipped, true},
		{StatusShipped, StatusDelivered, true},
		{StatusShipped, StatusCancelled, true},
		{StatusDelivered, StatusShipped, false},
		{StatusDelivered, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.allowed, c.from.CanTransitionTo(c.to), "%s -> %s", c.from, c.to)
	}
}

func TestOrderTransition(t *testing.T) {
	order := &Order{Status: StatusPending}

	require.NoError(t, order.Transition(StatusConfirmed))
	assert.Equal(t, StatusConfirmed, order.Status)

	// 终态保护：送达后不允许再改
	require.NoError(t, order.Transition(StatusShipped))
	require.NoError(t, order.Transition(StatusDelivered))
	err := order.Transition(StatusCancelled)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StatusDelivered, order.Status)
}

func TestOrderLineTotal(t *testing.T) {
	line := OrderLine{UnitPrice: decimal.NewFromInt(120000), Quantity: 3}
	assert.True(t, line.LineTotal().Equal(decimal.NewFromInt(360000)))
}
