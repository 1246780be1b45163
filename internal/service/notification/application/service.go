// internal/service/notification/application/service.go
package application

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"petshop/internal/service/notification/domain"
)

// OrderPlacedEvent 是从 Kafka 消费到的下单事件
type OrderPlacedEvent struct {
	OrderID     string `json:"orderId"`
	UserID      string `json:"userId"`
	FinalAmount string `json:"finalAmount"`
	CreatedAt   string `json:"createdAt"`
}

// NotificationService 把下单事件落成站内通知，并提供读状态同步
type NotificationService struct {
	store  domain.NotificationStore
	tracer trace.Tracer
	now    func() time.Time
}

func NewNotificationService(store domain.NotificationStore) *NotificationService {
	return &NotificationService{
		store:  store,
		tracer: otel.Tracer("notification-service"),
		now:    time.Now,
	}
}

// HandleOrderPlaced 消费一条下单事件，生成对应的站内通知
func (s *NotificationService) HandleOrderPlaced(ctx context.Context, event *OrderPlacedEvent) error {
	ctx, span := s.tracer.Start(ctx, "NotificationService.HandleOrderPlaced")
	defer span.End()
	span.SetAttributes(
		attribute.String("user.id", event.UserID),
		attribute.String("order.id", event.OrderID),
	)

	n := &domain.Notification{
		UserID:    event.UserID,
		OrderID:   event.OrderID,
		Title:     "Đặt hàng thành công",
		Message:   fmt.Sprintf("Đơn hàng %s đã được tạo, tổng thanh toán %s. Chúng tôi sẽ sớm xác nhận đơn của bạn.", event.OrderID, event.FinalAmount),
		Read:      false,
		CreatedAt: s.now(),
	}
	if err := s.store.Append(ctx, n); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to store notification")
		return err
	}
	span.AddEvent("notification stored")
	return nil
}

// List 返回用户的全部通知，按时间倒序
func (s *NotificationService) List(ctx context.Context, userID string) ([]*domain.Notification, error) {
	ctx, span := s.tracer.Start(ctx, "NotificationService.List")
	defer span.End()
	return s.store.ListByUser(ctx, userID)
}

// MarkRead 标记单条已读
func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) error {
	ctx, span := s.tracer.Start(ctx, "NotificationService.MarkRead")
	defer span.End()
	return s.store.MarkRead(ctx, userID, id)
}

// MarkAllRead 全部标记已读
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	ctx, span := s.tracer.Start(ctx, "NotificationService.MarkAllRead")
	defer span.End()
	return s.store.MarkAllRead(ctx, userID)
}
