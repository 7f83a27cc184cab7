package counter

import "go.uber.org/atomic"

// Observer 计数变化回调，传入变化后的值
type Observer func(n int64)

// SessionCounter 进程内在线会话计数，仅作缓存，存储层才是权威数据
type SessionCounter struct {
	n        atomic.Int64
	observer Observer
}

// Option 计数器选项
type Option func(*SessionCounter)

// WithObserver 设置变化回调（如 prometheus gauge）
func WithObserver(o Observer) Option {
	return func(c *SessionCounter) {
		c.observer = o
	}
}

// New 创建计数器，初始值为 0
func New(opts ...Option) *SessionCounter {
	c := &SessionCounter{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Increment 加一
func (c *SessionCounter) Increment() int64 {
	return c.notify(c.n.Inc())
}

// Decrement 减一，只应在确认删除后调用
func (c *SessionCounter) Decrement() int64 {
	return c.notify(c.n.Dec())
}

// Get 当前值
func (c *SessionCounter) Get() int64 {
	return c.n.Load()
}

// Reset 归零
func (c *SessionCounter) Reset() {
	c.Set(0)
}

// Set 直接设置为 n
func (c *SessionCounter) Set(n int64) {
	c.n.Store(n)
	c.notify(n)
}

func (c *SessionCounter) notify(n int64) int64 {
	if c.observer != nil {
		c.observer(n)
	}
	return n
}
