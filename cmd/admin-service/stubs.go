// cmd/admin-service/stubs.go
package main

import (
	"context"

	"github.com/shopspring/decimal"

	orderdomain "petshop/internal/service/order/domain"
)

// noDiscount 后台不做结算，折扣解析恒为零
type noDiscount struct{}

func (noDiscount) ResolveDiscount(ctx context.Context, code string, subtotal decimal.Decimal, itemCount int) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

// noopPublisher 后台改订单状态不产生下单事件
type noopPublisher struct{}

func (noopPublisher) PublishOrderPlaced(ctx context.Context, event *orderdomain.OrderPlacedEvent) error {
	return nil
}
