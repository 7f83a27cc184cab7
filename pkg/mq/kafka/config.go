package kafka

import "time"

// Config Kafka 配置
type Config struct {
	// Brokers Kafka broker 地址列表
	Brokers []string `json:"brokers" mapstructure:"brokers"`

	// Producer 生产者配置
	Producer ProducerConfig `json:"producer" mapstructure:"producer"`

	// SASL 认证配置（可选）
	SASL *SASLConfig `json:"sasl,omitempty" mapstructure:"sasl"`

	// TLS 配置（可选）
	TLS *TLSConfig `json:"tls,omitempty" mapstructure:"tls"`
}

// ProducerConfig 生产者配置
type ProducerConfig struct {
	// Async 是否异步发送
	Async bool `json:"async" mapstructure:"async"`

	// BatchSize 批量大小
	BatchSize int `json:"batch_size" mapstructure:"batch_size"`

	// BatchTimeout 批量超时时间
	BatchTimeout time.Duration `json:"batch_timeout" mapstructure:"batch_timeout"`

	// MaxRetries 最大重试次数
	MaxRetries int `json:"max_retries" mapstructure:"max_retries"`

	// RequiredAcks 确认模式: 0 不等待, 1 Leader, -1 所有副本
	RequiredAcks int `json:"required_acks" mapstructure:"required_acks"`

	// Compression 压缩算法: none, gzip, snappy, lz4, zstd
	Compression string `json:"compression" mapstructure:"compression"`

	WriteTimeout time.Duration `json:"write_timeout" mapstructure:"write_timeout"`
	ReadTimeout  time.Duration `json:"read_timeout" mapstructure:"read_timeout"`
}

// SASLConfig SASL 认证配置
type SASLConfig struct {
	// Mechanism 认证机制: PLAIN, SCRAM-SHA-256, SCRAM-SHA-512
	Mechanism string `json:"mechanism" mapstructure:"mechanism"`
	Username  string `json:"username" mapstructure:"username"`
	Password  string `json:"password" mapstructure:"password"`
}

// TLSConfig TLS 配置
type TLSConfig struct {
	Enable             bool   `json:"enable" mapstructure:"enable"`
	CertFile           string `json:"cert_file" mapstructure:"cert_file"`
	KeyFile            string `json:"key_file" mapstructure:"key_file"`
	CAFile             string `json:"ca_file" mapstructure:"ca_file"`
	InsecureSkipVerify bool   `json:"insecure_skip_verify" mapstructure:"insecure_skip_verify"`
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		Brokers: []string{"localhost:9092"},
		Producer: ProducerConfig{
			BatchSize:    100,
			BatchTimeout: 10 * time.Millisecond,
			MaxRetries:   3,
			RequiredAcks: 1, // Leader
			Compression:  "snappy",
			WriteTimeout: 10 * time.Second,
			ReadTimeout:  10 * time.Second,
		},
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c == nil {
		return ErrInvalidConfig
	}
	if len(c.Brokers) == 0 {
		return ErrNoBrokers
	}
	switch c.Producer.RequiredAcks {
	case -1, 0, 1:
	default:
		return ErrInvalidConfig
	}
	return nil
}
