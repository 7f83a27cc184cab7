// Package job 后台定时任务
package job

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/lk2023060901/xdooria-users/pkg/logger"
)

// Resyncer 以权威数据重算计数
type Resyncer interface {
	Resync(ctx context.Context) (int64, error)
}

// Config 计数器对齐配置
type Config struct {
	// ResyncSpec cron 表达式，为空时不启动
	ResyncSpec string `mapstructure:"resync_spec" json:"resync_spec"`
	// ResyncTimeout 单次对齐超时
	ResyncTimeout time.Duration `mapstructure:"resync_timeout" json:"resync_timeout"`
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		ResyncSpec:    "@every 1m",
		ResyncTimeout: 5 * time.Second,
	}
}

// CounterResync 定时将会话计数器与存储对齐，实现 app.Server
type CounterResync struct {
	cron    *cron.Cron
	target  Resyncer
	timeout time.Duration
	logger  logger.Logger
	enabled bool
}

// NewCounterResync 创建对齐任务，表达式非法时返回错误
func NewCounterResync(cfg *Config, target Resyncer, l logger.Logger) (*CounterResync, error) {
	if l == nil {
		l = logger.Noop()
	}
	j := &CounterResync{
		target:  target,
		timeout: cfg.ResyncTimeout,
		logger:  l.Named("job.counter_resync"),
	}
	if j.timeout <= 0 {
		j.timeout = DefaultConfig().ResyncTimeout
	}

	j.cron = cron.New(cron.WithChain(cron.Recover(cronLogger{j.logger}), cron.SkipIfStillRunning(cronLogger{j.logger})))
	if cfg.ResyncSpec == "" {
		return j, nil
	}
	if _, err := j.cron.AddFunc(cfg.ResyncSpec, j.run); err != nil {
		return nil, fmt.Errorf("invalid resync spec %q: %w", cfg.ResyncSpec, err)
	}
	j.enabled = true
	return j, nil
}

func (j *CounterResync) run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	n, err := j.target.Resync(ctx)
	if err != nil {
		j.logger.Error("counter resync failed", "error", err)
		return
	}
	j.logger.Debug("counter resynced", "sessions", n)
}

// Enabled 是否配置了调度
func (j *CounterResync) Enabled() bool {
	return j.enabled
}

func (j *CounterResync) Start() error {
	if !j.enabled {
		j.logger.Info("counter resync disabled")
		return nil
	}
	j.cron.Start()
	j.logger.Info("counter resync started", "entries", len(j.cron.Entries()))
	return nil
}

// Stop 等待正在执行的任务结束
func (j *CounterResync) Stop() error {
	<-j.cron.Stop().Done()
	return nil
}

// cronLogger 适配 cron.Logger
type cronLogger struct {
	l logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error(msg, append(keysAndValues, "error", err)...)
}
