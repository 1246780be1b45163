// internal/service/notification/infrastructure/kafka_consumer.go
package infrastructure

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"petshop/internal/pkg/logger"
	"petshop/internal/pkg/mq"
	"petshop/internal/service/notification/application"
)

// OrderEventConsumer 消费下单事件并交给通知服务处理
type OrderEventConsumer struct {
	reader  *kafka.Reader
	service *application.NotificationService
	tracer  trace.Tracer
}

func NewOrderEventConsumer(brokers []string, topic, groupID string, service *application.NotificationService) *OrderEventConsumer {
	return &OrderEventConsumer{
		reader:  mq.NewKafkaReader(brokers, topic, groupID),
		service: service,
		tracer:  otel.Tracer("notification-service"),
	}
}

// Run 拉取并处理消息，直到 ctx 取消。
// 处理成功才提交位点，处理失败的消息等重平衡后重投。
func (c *OrderEventConsumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Ctx(ctx).Error().Err(err).Msg("failed to fetch message")
			continue
		}
		if err := c.process(ctx, msg); err != nil {
			logger.Ctx(ctx).Error().Err(err).
				Int64("offset", msg.Offset).
				Msg("failed to process order event, will retry on redelivery")
			continue
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			logger.Ctx(ctx).Error().Err(err).Msg("failed to commit offset")
		}
	}
}

func (c *OrderEventConsumer) process(ctx context.Context, msg kafka.Message) error {
	// 从消息头恢复上游的追踪上下文，把消费挂到下单链路上
	msgCtx := mq.ExtractTraceContext(ctx, msg.Headers)
	msgCtx, span := c.tracer.Start(msgCtx, "OrderEventConsumer.process",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", msg.Topic),
			attribute.Int64("messaging.kafka.message.offset", msg.Offset),
		),
	)
	defer span.End()

	var event application.OrderPlacedEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "malformed event payload")
		// 坏消息无法通过重投修复，记日志后跳过
		logger.Ctx(msgCtx).Error().Err(err).Msg("dropping malformed order event")
		return nil
	}
	return c.service.HandleOrderPlaced(msgCtx, &event)
}

func (c *OrderEventConsumer) Close() error {
	return c.reader.Close()
}
