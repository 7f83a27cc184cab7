package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lk2023060901/xdooria-users/pkg/config"
)

// 操作结果标签
const (
	ResultOK = "ok"
)

// Config 指标配置
type Config struct {
	// Namespace 指标命名空间
	Namespace string `mapstructure:"namespace" json:"namespace" yaml:"namespace"`
	// Buckets 操作耗时分桶（秒）
	Buckets []float64 `mapstructure:"buckets" json:"buckets" yaml:"buckets"`
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		Namespace: "users",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}
}

// SessionMetrics 会话服务指标
type SessionMetrics struct {
	config *Config
	// 会话操作总数（按操作、结果）
	Operations *prometheus.CounterVec
	// 会话操作耗时
	OperationDuration *prometheus.HistogramVec
	// 当前在线会话数，与计数器同步
	LiveSessions prometheus.Gauge
}

// New 创建会话指标
func New(cfg *Config) (*SessionMetrics, error) {
	newCfg, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to merge metrics config: %w", err)
	}

	return &SessionMetrics{
		config: newCfg,
		Operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: newCfg.Namespace,
				Subsystem: "session",
				Name:      "operations_total",
				Help:      "会话操作总数",
			},
			[]string{"op", "result"}, // result: ok/invalid_input/conflict/not_found/internal
		),
		OperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: newCfg.Namespace,
				Subsystem: "session",
				Name:      "operation_duration_seconds",
				Help:      "会话操作耗时（秒）",
				Buckets:   newCfg.Buckets,
			},
			[]string{"op"},
		),
		LiveSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: newCfg.Namespace,
				Name:      "sessions_live",
				Help:      "当前在线会话数",
			},
		),
	}, nil
}

// Register 注册指标到 Prometheus Registry
func (m *SessionMetrics) Register(registerer prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.Operations,
		m.OperationDuration,
		m.LiveSessions,
	}

	for _, c := range collectors {
		if err := registerer.Register(c); err != nil {
			return err
		}
	}

	return nil
}

// RecordOperation 记录一次会话操作
func (m *SessionMetrics) RecordOperation(op, result string, d time.Duration) {
	m.Operations.WithLabelValues(op, result).Inc()
	m.OperationDuration.WithLabelValues(op).Observe(d.Seconds())
}

// SetLive 同步在线会话数，可作为计数器观察者
func (m *SessionMetrics) SetLive(n int64) {
	m.LiveSessions.Set(float64(n))
}

// GetConfig 获取配置
func (m *SessionMetrics) GetConfig() *Config {
	return m.config
}
