// internal/service/order/infrastructure/kafka_producer.go
package infrastructure

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"

	"petshop/internal/pkg/mq"
	"petshop/internal/service/order/domain"
)

// KafkaEventPublisher 把下单事件写入 Kafka，追踪上下文随消息头透传
type KafkaEventPublisher struct {
	writer *kafka.Writer
}

func NewKafkaEventPublisher(brokers []string, topic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{writer: mq.NewKafkaWriter(brokers, topic)}
}

func (p *KafkaEventPublisher) PublishOrderPlaced(ctx context.Context, event *domain.OrderPlacedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "failed to encode OrderPlaced event")
	}
	// 以用户 ID 作分区键，同一用户的事件保序
	return mq.ProduceMessage(ctx, p.writer, []byte(event.UserID), payload)
}

func (p *KafkaEventPublisher) Close() error {
	return p.writer.Close()
}
