// Package config users 服务配置
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/lk2023060901/xdooria-users/app/users/internal/auth"
	"github.com/lk2023060901/xdooria-users/app/users/internal/event"
	"github.com/lk2023060901/xdooria-users/app/users/internal/job"
	"github.com/lk2023060901/xdooria-users/app/users/internal/metrics"
	"github.com/lk2023060901/xdooria-users/app/users/internal/store"
	"github.com/lk2023060901/xdooria-users/pkg/app"
	pkgconfig "github.com/lk2023060901/xdooria-users/pkg/config"
	"github.com/lk2023060901/xdooria-users/pkg/database/postgres"
	"github.com/lk2023060901/xdooria-users/pkg/database/redis"
	"github.com/lk2023060901/xdooria-users/pkg/logger"
	"github.com/lk2023060901/xdooria-users/pkg/otel"
	"github.com/lk2023060901/xdooria-users/pkg/prometheus"
	"github.com/lk2023060901/xdooria-users/pkg/sentry"
	"github.com/lk2023060901/xdooria-users/pkg/web"
	"github.com/lk2023060901/xdooria-users/pkg/web/middleware"
)

// Config users 服务完整配置
type Config struct {
	Log     logger.Config             `mapstructure:"log"`
	Loggers map[string]*logger.Config `mapstructure:"loggers"`

	// StopTimeout 优雅停止超时
	StopTimeout time.Duration `mapstructure:"stop_timeout"`

	// Web Server 配置
	Web       web.Config                 `mapstructure:"web"`
	CORS      middleware.CORSConfig      `mapstructure:"cors"`
	RateLimit middleware.RateLimitConfig `mapstructure:"rate_limit"`

	// 存储
	Store    store.Config    `mapstructure:"store"`
	Postgres postgres.Config `mapstructure:"postgres"`
	Redis    redis.Config    `mapstructure:"redis"`

	// 认证
	Auth auth.Config `mapstructure:"auth"`

	// 计数器对齐任务
	Counter job.Config `mapstructure:"counter"`

	// 会话事件
	Events event.Config `mapstructure:"events"`

	// 可观测性
	Prometheus prometheus.Config `mapstructure:"prometheus"`
	Metrics    metrics.Config    `mapstructure:"metrics"`
	Sentry     sentry.Config     `mapstructure:"sentry"`
	Otel       otel.Config       `mapstructure:"otel"`
}

// Default 默认配置，配置文件与环境变量在其上覆盖
func Default() *Config {
	return &Config{
		Log:         *logger.DefaultConfig(),
		StopTimeout: 30 * time.Second,
		Web:         *web.DefaultConfig(),
		RateLimit:   *middleware.DefaultRateLimitConfig(),
		Store:       *store.DefaultConfig(),
		Postgres:    *postgres.DefaultConfig(),
		Redis:       *redis.DefaultConfig(),
		Auth:        *auth.DefaultConfig(),
		Counter:     *job.DefaultConfig(),
		Events:      *event.DefaultConfig(),
		Prometheus:  *prometheus.DefaultConfig(),
		Metrics:     *metrics.DefaultConfig(),
		Sentry:      *sentry.DefaultConfig(),
		Otel:        *otel.DefaultConfig(),
	}
}

// Load 加载配置并校验
func Load() (*Config, error) {
	cfg := Default()
	if _, err := app.LoadConfig(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NeedsPostgres 存储或认证使用 PostgreSQL
func (c *Config) NeedsPostgres() bool {
	return c.Store.Driver == store.DriverPostgres || c.Auth.Driver == auth.DriverPostgres
}

// NeedsRedis 存储使用 Redis
func (c *Config) NeedsRedis() bool {
	return c.Store.Driver == store.DriverRedis
}

// Validate 校验标签规则及依赖组合
func (c *Config) Validate() error {
	if err := pkgconfig.NewValidator().Validate(c); err != nil {
		return err
	}

	var errs []error
	if c.NeedsPostgres() {
		if err := c.Postgres.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("postgres: %w", err))
		}
	}
	if c.NeedsRedis() {
		if err := c.Redis.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	if c.Store.Migrate && !c.NeedsPostgres() {
		errs = append(errs, errors.New("store.migrate requires a postgres store or authenticator"))
	}
	if c.Events.Enabled {
		if c.Events.Topic == "" {
			errs = append(errs, errors.New("events.topic is required when events are enabled"))
		}
		if err := c.Events.Kafka.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("events.kafka: %w", err))
		}
	}
	if c.Sentry.Enabled {
		if err := c.Sentry.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("sentry: %w", err))
		}
	}
	return errors.Join(errs...)
}
