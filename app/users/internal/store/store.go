// Package store 定义会话与购买菜单的持久化契约及其内存、PostgreSQL、Redis 实现。
//
// 每个操作在单条记录级别保证原子性，跨调用不提供事务。
// 唯一性由存储层的原子条件插入保证，调用方不应先查再插。
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/lk2023060901/xdooria-users/app/users/internal/model"
	"github.com/lk2023060901/xdooria-users/pkg/database/postgres"
	"github.com/lk2023060901/xdooria-users/pkg/database/redis"
)

var (
	// ErrDuplicate 唯一约束冲突
	ErrDuplicate = errors.New("store: duplicate key")

	// ErrNotFound 记录不存在
	ErrNotFound = errors.New("store: not found")
)

// 存储驱动
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// Config 存储配置
type Config struct {
	// Driver memory | postgres | redis
	Driver string `mapstructure:"driver" json:"driver" validate:"oneof=memory postgres redis"`
	// Migrate 启动时执行 PostgreSQL 迁移
	Migrate bool `mapstructure:"migrate" json:"migrate"`
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{Driver: DriverMemory}
}

// SessionStore 会话存储，以 userId 为唯一键
type SessionStore interface {
	// InsertUnique 原子插入，userId 已存在时返回 ErrDuplicate
	InsertUnique(ctx context.Context, s *model.Session) error
	// FindOne 不存在时返回 ErrNotFound
	FindOne(ctx context.Context, userID int64) (*model.Session, error)
	// UpdateMerge 只写入提供的字段，返回匹配的记录数
	UpdateMerge(ctx context.Context, userID int64, u *model.SessionUpdate) (int64, error)
	DeleteOne(ctx context.Context, userID int64) (int64, error)
	DeleteMany(ctx context.Context) (int64, error)
	Count(ctx context.Context) (int64, error)
}

// BuyMenuStore 购买菜单存储，以 userId 为唯一键
type BuyMenuStore interface {
	InsertUnique(ctx context.Context, b *model.BuyMenu) error
	FindOne(ctx context.Context, userID int64) (*model.BuyMenu, error)
	UpdateMerge(ctx context.Context, userID int64, u *model.BuyMenuUpdate) (int64, error)
	DeleteOne(ctx context.Context, userID int64) (int64, error)
}

// New 按驱动创建存储，所需客户端由调用方提供
func New(cfg *Config, pg *postgres.Client, rdb *redis.Client) (SessionStore, BuyMenuStore, error) {
	switch cfg.Driver {
	case DriverMemory, "":
		return NewMemorySessionStore(), NewMemoryBuyMenuStore(), nil
	case DriverPostgres:
		if pg == nil {
			return nil, nil, fmt.Errorf("store: driver %q requires a postgres client", cfg.Driver)
		}
		return NewPostgresSessionStore(pg), NewPostgresBuyMenuStore(pg), nil
	case DriverRedis:
		if rdb == nil {
			return nil, nil, fmt.Errorf("store: driver %q requires a redis client", cfg.Driver)
		}
		return NewRedisSessionStore(rdb), NewRedisBuyMenuStore(rdb), nil
	default:
		return nil, nil, fmt.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
