package sentry

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/lk2023060901/xdooria-users/pkg/config"
)

// Reporter 错误上报接口，HTTP 层只依赖它
type Reporter interface {
	CaptureError(ctx context.Context, err error, tags map[string]string)
	CapturePanic(ctx context.Context, recovered any)
}

var (
	_ Reporter = (*Client)(nil)
	_ Reporter = NoopReporter{}
)

// NoopReporter 未启用 Sentry 时使用
type NoopReporter struct{}

func (NoopReporter) CaptureError(context.Context, error, map[string]string) {}
func (NoopReporter) CapturePanic(context.Context, any)                      {}

// Option 客户端选项
type Option func(*sentry.ClientOptions)

// WithBeforeSend 事件发送前回调，返回 nil 丢弃事件
func WithBeforeSend(fn func(*sentry.Event, *sentry.EventHint) *sentry.Event) Option {
	return func(o *sentry.ClientOptions) {
		o.BeforeSend = fn
	}
}

// Client Sentry 客户端，持有独立 Hub
type Client struct {
	hub    *sentry.Hub
	config *Config
	closed atomic.Bool

	stats struct {
		eventsTotal    atomic.Uint64
		eventsCaptured atomic.Uint64
		eventsDropped  atomic.Uint64
	}
}

// Stats 统计信息
type Stats struct {
	EventsTotal    uint64
	EventsCaptured uint64
	EventsDropped  uint64
}

// New 创建 Sentry 客户端
func New(cfg *Config, opts ...Option) (*Client, error) {
	newCfg, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, err
	}
	if err := newCfg.Validate(); err != nil {
		return nil, err
	}

	clientOpts := newCfg.toClientOptions()
	for _, opt := range opts {
		opt(&clientOpts)
	}

	client, err := sentry.NewClient(clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create sentry client: %w", err)
	}

	hub := sentry.NewHub(client, sentry.NewScope())
	hub.ConfigureScope(func(scope *sentry.Scope) {
		for key, value := range newCfg.Tags {
			scope.SetTag(key, value)
		}
	})

	return &Client{
		hub:    hub,
		config: newCfg,
	}, nil
}

// CaptureError 上报错误，tags 仅作用于本次事件
func (c *Client) CaptureError(ctx context.Context, err error, tags map[string]string) {
	if err == nil || c.closed.Load() {
		return
	}

	hub := c.hubFor(ctx)
	hub.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		c.record(hub.CaptureException(err))
	})
}

// CapturePanic 上报 recover 到的 panic，不重新抛出
func (c *Client) CapturePanic(ctx context.Context, recovered any) {
	if recovered == nil || c.closed.Load() {
		return
	}

	hub := c.hubFor(ctx)
	c.record(hub.RecoverWithContext(ctx, recovered))
}

// CaptureMessage 上报消息
func (c *Client) CaptureMessage(message string) {
	if c.closed.Load() {
		return
	}
	c.record(c.hub.CaptureMessage(message))
}

// hubFor 每个请求克隆一份 Hub，避免并发修改 scope
func (c *Client) hubFor(ctx context.Context) *sentry.Hub {
	if ctx != nil {
		if hub := sentry.GetHubFromContext(ctx); hub != nil {
			return hub
		}
	}
	return c.hub.Clone()
}

func (c *Client) record(eventID *sentry.EventID) {
	c.stats.eventsTotal.Add(1)
	if eventID != nil && *eventID != "" {
		c.stats.eventsCaptured.Add(1)
	} else {
		c.stats.eventsDropped.Add(1)
	}
}

// Flush 等待事件上报完成
func (c *Client) Flush(timeout time.Duration) bool {
	return c.hub.Flush(timeout)
}

// Close 刷新后关闭
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return ErrClientClosed
	}

	c.hub.Flush(c.config.ShutdownTimeout)
	return nil
}

// Stats 获取统计信息
func (c *Client) Stats() Stats {
	return Stats{
		EventsTotal:    c.stats.eventsTotal.Load(),
		EventsCaptured: c.stats.eventsCaptured.Load(),
		EventsDropped:  c.stats.eventsDropped.Load(),
	}
}
