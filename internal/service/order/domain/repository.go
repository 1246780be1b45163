// internal/service/order/domain/repository.go
package domain

import "context"

// OrderRepository 定义订单持久化接口
type OrderRepository interface {
	// Save 持久化订单。订单号重复时返回已有订单而不重复写入，
	// 这是结算幂等性的最后一道防线。
	Save(ctx context.Context, order *Order) error
	FindByID(ctx context.Context, id string) (*Order, error)
	FindByUserID(ctx context.Context, userID string) ([]*Order, error)
	FindAll(ctx context.Context) ([]*Order, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
}

// EventPublisher 定义下单事件的发布接口
type EventPublisher interface {
	PublishOrderPlaced(ctx context.Context, event *OrderPlacedEvent) error
}
