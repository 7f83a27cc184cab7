package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ==================== Hash 操作 ====================

// HGetAll 获取哈希全部字段，键不存在时返回空 map
func (c *Client) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	m, err := c.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("hgetall failed: %w", err)
	}
	return m, nil
}

// HSet 设置哈希字段
func (c *Client) HSet(ctx context.Context, key string, values ...interface{}) (int64, error) {
	n, err := c.rdb.HSet(ctx, key, values...).Result()
	if err != nil {
		return 0, fmt.Errorf("hset failed: %w", err)
	}
	return n, nil
}

// ==================== Key 操作 ====================

// Exists 检查键是否存在
func (c *Client) Exists(ctx context.Context, keys ...string) (int64, error) {
	n, err := c.rdb.Exists(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("exists failed: %w", err)
	}
	return n, nil
}

// Del 删除键
func (c *Client) Del(ctx context.Context, keys ...string) (int64, error) {
	n, err := c.rdb.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("del failed: %w", err)
	}
	return n, nil
}

// ==================== Set 操作 ====================

// SCard 获取集合元素数量
func (c *Client) SCard(ctx context.Context, key string) (int64, error) {
	n, err := c.rdb.SCard(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("scard failed: %w", err)
	}
	return n, nil
}

// SMembers 获取集合全部成员
func (c *Client) SMembers(ctx context.Context, key string) ([]string, error) {
	members, err := c.rdb.SMembers(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("smembers failed: %w", err)
	}
	return members, nil
}

// ==================== Lua 脚本 ====================

// Run 执行 Lua 脚本（优先 EVALSHA，未缓存时回退 EVAL）
func (c *Client) Run(ctx context.Context, script *Script, keys []string, args ...interface{}) (interface{}, error) {
	v, err := script.Run(ctx, c.rdb, keys, args...).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNil
		}
		return nil, fmt.Errorf("script run failed: %w", err)
	}
	return v, nil
}

// RunInt64 执行返回整数的 Lua 脚本
func (c *Client) RunInt64(ctx context.Context, script *Script, keys []string, args ...interface{}) (int64, error) {
	v, err := c.Run(ctx, script, keys, args...)
	if err != nil {
		return 0, err
	}
	n, ok := v.(int64)
	if !ok {
		return 0, fmt.Errorf("script returned %T, want int64", v)
	}
	return n, nil
}
