package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/lk2023060901/xdooria-users/pkg/logger"
	"github.com/lk2023060901/xdooria-users/pkg/web/errors"
	"golang.org/x/time/rate"
)

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	Enabled bool `mapstructure:"enabled" json:"enabled" yaml:"enabled"`
	// RequestsPerSecond 每秒请求数
	RequestsPerSecond int `mapstructure:"requests_per_second" json:"requests_per_second" yaml:"requests_per_second"`
	// Burst 突发容量
	Burst int `mapstructure:"burst" json:"burst" yaml:"burst"`
	// PerIP 按客户端 IP 分别限流，否则全局共用一个
	PerIP     bool     `mapstructure:"per_ip" json:"per_ip" yaml:"per_ip"`
	PerPath   bool     `mapstructure:"per_path" json:"per_path" yaml:"per_path"`
	SkipPaths []string `mapstructure:"skip_paths" json:"skip_paths" yaml:"skip_paths"`
	// WaitMode true 时排队等待，false 时直接拒绝
	WaitMode    bool          `mapstructure:"wait_mode" json:"wait_mode" yaml:"wait_mode"`
	WaitTimeout time.Duration `mapstructure:"wait_timeout" json:"wait_timeout" yaml:"wait_timeout"`

	MaxLimiters int           `mapstructure:"max_limiters" json:"max_limiters" yaml:"max_limiters"`
	LimiterTTL  time.Duration `mapstructure:"limiter_ttl" json:"limiter_ttl" yaml:"limiter_ttl"`

	// KeyFunc 自定义限流键
	KeyFunc func(*gin.Context) string `mapstructure:"-" json:"-" yaml:"-"`
}

// DefaultRateLimitConfig 默认限流配置
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		RequestsPerSecond: 100,
		Burst:             200,
		PerIP:             true,
		SkipPaths:         []string{"/health", "/metrics"},
		WaitTimeout:       time.Second,
		MaxLimiters:       10000,
		LimiterTTL:        10 * time.Minute,
	}
}

// RateLimiter 令牌桶限流器，按键缓存在带过期的 LRU 中
type RateLimiter struct {
	cfg      *RateLimitConfig
	global   *rate.Limiter
	mu       sync.Mutex
	limiters *expirable.LRU[string, *rate.Limiter]
	logger   logger.Logger
}

// NewRateLimiter 创建限流器
func NewRateLimiter(l logger.Logger, cfg *RateLimitConfig) *RateLimiter {
	if cfg == nil {
		cfg = DefaultRateLimitConfig()
	}
	rl := &RateLimiter{
		cfg:    cfg,
		global: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		logger: l,
	}

	rl.limiters = expirable.NewLRU[string, *rate.Limiter](cfg.MaxLimiters, func(key string, _ *rate.Limiter) {
		l.Debug("rate limiter evicted", "key", key)
	}, cfg.LimiterTTL)

	return rl
}

// Allow 检查是否允许请求，key 为空时使用全局限流器
func (rl *RateLimiter) Allow(key string) bool {
	if key == "" {
		return rl.global.Allow()
	}
	return rl.getLimiter(key).Allow()
}

// Wait 等待直到允许请求
func (rl *RateLimiter) Wait(ctx context.Context, key string) error {
	if key == "" {
		return rl.global.Wait(ctx)
	}
	return rl.getLimiter(key).Wait(ctx)
}

func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if limiter, ok := rl.limiters.Get(key); ok {
		return limiter
	}
	limiter := rate.NewLimiter(rate.Limit(rl.cfg.RequestsPerSecond), rl.cfg.Burst)
	rl.limiters.Add(key, limiter)
	return limiter
}

// Len 当前缓存的限流器数量
func (rl *RateLimiter) Len() int {
	return rl.limiters.Len()
}

// Close 清空缓存
func (rl *RateLimiter) Close() error {
	rl.limiters.Purge()
	return nil
}

// RateLimit 限流中间件
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	skipPaths := make(map[string]struct{})
	for _, path := range limiter.cfg.SkipPaths {
		skipPaths[path] = struct{}{}
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if _, skip := skipPaths[path]; skip {
			c.Next()
			return
		}

		key := generateKey(c, limiter.cfg)

		if limiter.cfg.WaitMode {
			ctx := c.Request.Context()
			if limiter.cfg.WaitTimeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, limiter.cfg.WaitTimeout)
				defer cancel()
			}

			if err := limiter.Wait(ctx, key); err != nil {
				limiter.logger.Warn("rate limit wait timeout", "key", key, "path", path, "error", err)
				abortWithRateLimitError(c)
				return
			}
		} else if !limiter.Allow(key) {
			limiter.logger.Warn("rate limit exceeded", "key", key, "path", path)
			abortWithRateLimitError(c)
			return
		}

		c.Next()
	}
}

func generateKey(c *gin.Context, cfg *RateLimitConfig) string {
	if cfg.KeyFunc != nil {
		return cfg.KeyFunc(c)
	}

	var key string
	if cfg.PerIP {
		key = "ip:" + c.ClientIP()
	}
	if cfg.PerPath {
		if key != "" {
			key += ":"
		}
		key += "path:" + c.Request.URL.Path
	}
	return key
}

func abortWithRateLimitError(c *gin.Context) {
	c.Header("Retry-After", strconv.Itoa(1))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"code":    errors.CodeRateLimited,
		"message": "too many requests",
		"data":    nil,
	})
}
