package redis

import "github.com/redis/go-redis/v9"

// PoolStats 连接池统计信息
type PoolStats struct {
	Hits       uint32 // 连接池命中次数
	Misses     uint32 // 连接池未命中次数
	Timeouts   uint32 // 超时次数
	TotalConns uint32 // 总连接数
	IdleConns  uint32 // 空闲连接数
	StaleConns uint32 // 过期连接数
}

// Script Lua 脚本，首次执行后走 EVALSHA
type Script = redis.Script

// NewScript 创建 Lua 脚本
func NewScript(src string) *Script {
	return redis.NewScript(src)
}
