package web

import (
	"time"

	"github.com/gin-gonic/gin"
)

// Config Web 服务配置
type Config struct {
	Host            string        `mapstructure:"host" json:"host" yaml:"host"`
	Port            int           `mapstructure:"port" json:"port" yaml:"port"`
	Mode            string        `mapstructure:"mode" json:"mode" yaml:"mode"` // debug, release, test
	ReadTimeout     time.Duration `mapstructure:"read_timeout" json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" json:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" json:"shutdown_timeout" yaml:"shutdown_timeout"`
	EnableTLS       bool          `mapstructure:"enable_tls" json:"enable_tls" yaml:"enable_tls"`
	CertFile        string        `mapstructure:"cert_file" json:"cert_file" yaml:"cert_file"`
	KeyFile         string        `mapstructure:"key_file" json:"key_file" yaml:"key_file"`
	// ServiceName 写入 tracing span 的服务名
	ServiceName string `mapstructure:"service_name" json:"service_name" yaml:"service_name"`
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		Port:            8080,
		Mode:            gin.ReleaseMode,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
		ShutdownTimeout: 5 * time.Second,
		ServiceName:     "xdooria-users",
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return ErrInvalidConfig
	}
	if c.EnableTLS && (c.CertFile == "" || c.KeyFile == "") {
		return ErrInvalidConfig
	}
	switch c.Mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
	default:
		return ErrInvalidConfig
	}
	return nil
}
