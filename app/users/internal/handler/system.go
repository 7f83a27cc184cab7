package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/lk2023060901/xdooria-users/pkg/logger"
)

// HealthCheck 依赖健康检查，如数据库 Ping
type HealthCheck func(ctx context.Context) error

// SystemHandler /ping /health /metrics
type SystemHandler struct {
	counter   func() int64
	checks    map[string]HealthCheck
	metrics   http.Handler
	startedAt time.Time
	timeout   time.Duration
	logger    logger.Logger
}

// SystemOption 选项
type SystemOption func(*SystemHandler)

// WithHealthCheck 添加健康检查项
func WithHealthCheck(name string, check HealthCheck) SystemOption {
	return func(h *SystemHandler) {
		h.checks[name] = check
	}
}

// WithMetricsHandler 挂载 /metrics
func WithMetricsHandler(handler http.Handler) SystemOption {
	return func(h *SystemHandler) {
		h.metrics = handler
	}
}

// NewSystemHandler counter 返回当前在线会话数
func NewSystemHandler(counter func() int64, l logger.Logger, opts ...SystemOption) *SystemHandler {
	h := &SystemHandler{
		counter:   counter,
		checks:    make(map[string]HealthCheck),
		startedAt: time.Now(),
		timeout:   2 * time.Second,
		logger:    l.Named("handler.system"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register 注册路由
func (h *SystemHandler) Register(r gin.IRouter) {
	r.GET("/ping", h.Ping)
	r.GET("/health", h.Health)
	if h.metrics != nil {
		r.GET("/metrics", gin.WrapH(h.metrics))
	}
}

// Ping 在线会话数与运行时长（秒）
func (h *SystemHandler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"sessions": h.counter(),
		"uptime":   int64(time.Since(h.startedAt).Seconds()),
	})
}

// Health 并发执行所有检查，任一失败返回 503
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	var (
		mu     sync.Mutex
		failed = make(map[string]string)
	)
	g, gctx := errgroup.WithContext(ctx)
	for name, check := range h.checks {
		g.Go(func() error {
			if err := check(gctx); err != nil {
				mu.Lock()
				failed[name] = err.Error()
				mu.Unlock()
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		h.logger.WarnContext(ctx, "health check failed", "checks", failed)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "checks": failed})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
