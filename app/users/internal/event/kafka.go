package event

import (
	"context"
	"fmt"

	"github.com/lk2023060901/xdooria-users/pkg/logger"
	"github.com/lk2023060901/xdooria-users/pkg/mq/kafka"
)

// JSONProducer 以 JSON 编码发送消息
type JSONProducer interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

var _ JSONProducer = (*kafka.Producer)(nil)

// KafkaPublisher 将事件写入 Kafka
type KafkaPublisher struct {
	producer JSONProducer
	logger   logger.Logger
}

// NewKafkaPublisher 创建 Kafka 事件发布器
func NewKafkaPublisher(p JSONProducer, l logger.Logger) *KafkaPublisher {
	if l == nil {
		l = logger.Noop()
	}
	return &KafkaPublisher{producer: p, logger: l.Named("event.kafka")}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e *Event) error {
	if err := p.producer.PublishJSON(ctx, e.Key(), e); err != nil {
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}
	p.logger.DebugContext(ctx, "event published", "type", e.Type, "key", e.Key())
	return nil
}

// NewPublisher 按配置创建发布器，未启用时返回 NoopPublisher
func NewPublisher(cfg *Config, l logger.Logger) (Publisher, func() error, error) {
	if cfg == nil || !cfg.Enabled {
		return NoopPublisher{}, func() error { return nil }, nil
	}
	if cfg.Topic == "" {
		return nil, nil, kafka.ErrEmptyTopic
	}

	producer, err := kafka.NewProducer(&cfg.Kafka, cfg.Topic,
		kafka.WithLogger(l),
		kafka.WithMiddleware(
			kafka.RecoveryMiddleware(l),
			kafka.TracingMiddleware("users.event"),
			kafka.LoggingMiddleware(l),
		),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("create event producer: %w", err)
	}
	return NewKafkaPublisher(producer, l), producer.Close, nil
}
