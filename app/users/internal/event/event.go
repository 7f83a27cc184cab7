// Package event 会话生命周期事件
package event

import (
	"context"
	"strconv"
	"time"

	"github.com/lk2023060901/xdooria-users/app/users/internal/model"
	"github.com/lk2023060901/xdooria-users/pkg/mq/kafka"
)

// Type 事件类型
type Type string

const (
	TypeCreated Type = "session.created"
	TypeDeleted Type = "session.deleted"
	TypeCleared Type = "session.cleared"
)

// Event 会话事件，序列化为 JSON 发送
type Event struct {
	Type      Type      `json:"type"`
	UserID    int64     `json:"userId,omitempty"`
	SessionID string    `json:"sessionId,omitempty"`
	Deleted   int64     `json:"deleted,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Key 分区键，同一用户的事件落在同一分区
func (e *Event) Key() string {
	if e.UserID == 0 {
		return "all"
	}
	return strconv.FormatInt(e.UserID, 10)
}

// Created 会话创建事件
func Created(s *model.Session) *Event {
	return &Event{Type: TypeCreated, UserID: s.UserID, SessionID: s.SessionID, Timestamp: time.Now()}
}

// Deleted 会话删除事件
func Deleted(userID int64) *Event {
	return &Event{Type: TypeDeleted, UserID: userID, Timestamp: time.Now()}
}

// Cleared 全部会话清空事件
func Cleared(deleted int64) *Event {
	return &Event{Type: TypeCleared, Deleted: deleted, Timestamp: time.Now()}
}

// Config 事件配置
type Config struct {
	// Enabled 是否发送事件
	Enabled bool `mapstructure:"enabled" json:"enabled"`
	// Topic Kafka 主题
	Topic string `mapstructure:"topic" json:"topic"`
	// Kafka 连接与生产者配置
	Kafka kafka.Config `mapstructure:"kafka" json:"kafka"`
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		Topic: "users.session.events",
		Kafka: *kafka.DefaultConfig(),
	}
}

// Publisher 事件发布器
type Publisher interface {
	Publish(ctx context.Context, e *Event) error
}

// NoopPublisher 丢弃所有事件
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, *Event) error { return nil }
