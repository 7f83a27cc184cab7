package redis

import (
	"fmt"
	"time"

	"github.com/lk2023060901/xdooria-users/pkg/config"
)

// Config Redis 配置
// Addrs 只有一个地址时为单机模式，多个地址时为集群模式
type Config struct {
	Addrs    []string `mapstructure:"addrs" json:"addrs"`
	Password string   `mapstructure:"password" json:"password"`
	DB       int      `mapstructure:"db" json:"db"` // 仅单机模式有效

	// KeyPrefix 键前缀，集群 slot 由调用方在键中自带的 hash tag 决定
	KeyPrefix string `mapstructure:"key_prefix" json:"key_prefix"`

	Pool PoolConfig `mapstructure:"pool" json:"pool"`
}

// PoolConfig 连接池配置
type PoolConfig struct {
	MaxIdleConns    int           `mapstructure:"max_idle_conns" json:"max_idle_conns"`
	MaxActiveConns  int           `mapstructure:"max_active_conns" json:"max_active_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" json:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time" json:"conn_max_idle_time"`
	DialTimeout     time.Duration `mapstructure:"dial_timeout" json:"dial_timeout"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" json:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" json:"write_timeout"`
	PoolTimeout     time.Duration `mapstructure:"pool_timeout" json:"pool_timeout"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Addrs:     []string{"localhost:6379"},
		KeyPrefix: "users",
		Pool: PoolConfig{
			MaxIdleConns:    10,
			MaxActiveConns:  100,
			ConnMaxLifetime: time.Hour,
			ConnMaxIdleTime: 10 * time.Minute,
			DialTimeout:     5 * time.Second,
			ReadTimeout:     3 * time.Second,
			WriteTimeout:    3 * time.Second,
			PoolTimeout:     5 * time.Second,
		},
	}
}

// MergeConfig 合并配置
func MergeConfig(dst, src *Config) (*Config, error) {
	return config.MergeConfig(dst, src)
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c == nil {
		return ErrNilConfig
	}
	if len(c.Addrs) == 0 {
		return fmt.Errorf("%w: addrs is empty", ErrInvalidConfig)
	}
	for i, addr := range c.Addrs {
		if addr == "" {
			return fmt.Errorf("%w: addrs[%d] is empty", ErrInvalidConfig, i)
		}
	}
	if c.DB < 0 || c.DB > 15 {
		return fmt.Errorf("%w: db must be in [0, 15]", ErrInvalidConfig)
	}
	if c.IsCluster() && c.DB != 0 {
		return fmt.Errorf("%w: db is not supported in cluster mode", ErrInvalidConfig)
	}
	return nil
}

// IsCluster 是否为集群模式
func (c *Config) IsCluster() bool {
	return len(c.Addrs) > 1
}
