package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/lk2023060901/xdooria-users/pkg/config"
	"github.com/lk2023060901/xdooria-users/pkg/logger"
)

// messageWriter kafka.Writer 的最小接口
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer 单 topic Kafka 生产者
type Producer struct {
	cfg         *Config
	topic       string
	writer      messageWriter
	logger      logger.Logger
	middlewares []ProducerMiddleware

	produced  atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64
	lastMsgAt atomic.Int64 // unix nano

	closed atomic.Bool
}

// ProducerOption 生产者选项
type ProducerOption func(*Producer)

// WithLogger 设置日志
func WithLogger(l logger.Logger) ProducerOption {
	return func(p *Producer) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithMiddleware 添加生产者中间件，按添加顺序由外到内执行
func WithMiddleware(mw ...ProducerMiddleware) ProducerOption {
	return func(p *Producer) {
		p.middlewares = append(p.middlewares, mw...)
	}
}

// withWriter 替换底层 writer
func withWriter(w messageWriter) ProducerOption {
	return func(p *Producer) {
		p.writer = w
	}
}

// NewProducer 创建生产者
func NewProducer(cfg *Config, topic string, opts ...ProducerOption) (*Producer, error) {
	if topic == "" {
		return nil, ErrEmptyTopic
	}

	newCfg, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, err
	}
	// 零值不会覆盖默认值，Async 以调用方为准
	if cfg != nil {
		newCfg.Producer.Async = cfg.Producer.Async
	}
	if err := newCfg.Validate(); err != nil {
		return nil, err
	}

	p := &Producer{
		cfg:    newCfg,
		topic:  topic,
		logger: logger.Noop(),
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.writer == nil {
		w, err := newWriter(newCfg, topic)
		if err != nil {
			return nil, err
		}
		p.writer = w
	}

	return p, nil
}

// newWriter 创建 kafka.Writer
func newWriter(cfg *Config, topic string) (*kafka.Writer, error) {
	pc := cfg.Producer
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchSize:              pc.BatchSize,
		BatchTimeout:           pc.BatchTimeout,
		MaxAttempts:            pc.MaxRetries + 1,
		WriteTimeout:           pc.WriteTimeout,
		ReadTimeout:            pc.ReadTimeout,
		RequiredAcks:           kafka.RequiredAcks(pc.RequiredAcks),
		Async:                  pc.Async,
		Compression:            parseCompression(pc.Compression),
		AllowAutoTopicCreation: true,
	}

	if cfg.TLS != nil || cfg.SASL != nil {
		transport, err := newTransport(cfg)
		if err != nil {
			return nil, fmt.Errorf("kafka transport: %w", err)
		}
		w.Transport = transport
	}

	return w, nil
}

// Publish 发布单条消息
func (p *Producer) Publish(ctx context.Context, msg *Message) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}
	msg.Topic = p.topic

	p.produced.Add(1)

	publish := PublishFunc(p.doPublish)
	for i := len(p.middlewares) - 1; i >= 0; i-- {
		mw, next := p.middlewares[i], publish
		publish = func(ctx context.Context, msg *Message) error {
			return mw(ctx, msg, next)
		}
	}

	if err := publish(ctx, msg); err != nil {
		p.failed.Add(1)
		return err
	}

	p.succeeded.Add(1)
	p.lastMsgAt.Store(time.Now().UnixNano())
	return nil
}

// PublishJSON 以 JSON 编码 v 后发布
func (p *Producer) PublishJSON(ctx context.Context, key string, v any) error {
	value, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("kafka: marshal message: %w", err)
	}

	return p.Publish(ctx, &Message{
		Key:     []byte(key),
		Value:   value,
		Headers: map[string]string{"content-type": "application/json"},
	})
}

// doPublish 实际写入
func (p *Producer) doPublish(ctx context.Context, msg *Message) error {
	km := kafka.Message{
		Key:   msg.Key,
		Value: msg.Value,
		Time:  msg.Timestamp,
	}

	if len(msg.Headers) > 0 {
		km.Headers = make([]kafka.Header, 0, len(msg.Headers))
		for k, v := range msg.Headers {
			km.Headers = append(km.Headers, kafka.Header{Key: k, Value: []byte(v)})
		}
	}

	return p.writer.WriteMessages(ctx, km)
}

// Topic 返回 topic 名称
func (p *Producer) Topic() string {
	return p.topic
}

// Stats 返回统计信息
func (p *Producer) Stats() ProducerStats {
	s := ProducerStats{
		MessagesProduced:  p.produced.Load(),
		MessagesSucceeded: p.succeeded.Load(),
		MessagesFailed:    p.failed.Load(),
	}
	if ts := p.lastMsgAt.Load(); ts > 0 {
		s.LastMessageTime = time.Unix(0, ts)
	}
	return s
}

// Close 关闭生产者，重复调用返回 nil
func (p *Producer) Close() error {
	if p.closed.Swap(true) {
		return nil
	}

	p.logger.Debug("producer closing", "topic", p.topic)

	return p.writer.Close()
}

// parseCompression 解析压缩算法
func parseCompression(s string) kafka.Compression {
	switch s {
	case "gzip":
		return kafka.Gzip
	case "snappy":
		return kafka.Snappy
	case "lz4":
		return kafka.Lz4
	case "zstd":
		return kafka.Zstd
	default:
		return 0
	}
}
