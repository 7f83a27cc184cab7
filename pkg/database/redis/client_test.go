package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := NewClient(&Config{Addrs: []string{mr.Addr()}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

// TestConfig_Validate 测试配置验证
func TestConfig_Validate(t *testing.T) {
	var nilCfg *Config
	assert.ErrorIs(t, nilCfg.Validate(), ErrNilConfig)

	assert.ErrorIs(t, (&Config{}).Validate(), ErrInvalidConfig)
	assert.ErrorIs(t, (&Config{Addrs: []string{""}}).Validate(), ErrInvalidConfig)
	assert.ErrorIs(t, (&Config{Addrs: []string{"a:1"}, DB: 16}).Validate(), ErrInvalidConfig)
	assert.ErrorIs(t, (&Config{Addrs: []string{"a:1", "b:1"}, DB: 1}).Validate(), ErrInvalidConfig)
	assert.NoError(t, DefaultConfig().Validate())
	assert.True(t, (&Config{Addrs: []string{"a:1", "b:1"}}).IsCluster())
}

// TestClient_Key 测试键前缀
func TestClient_Key(t *testing.T) {
	c, _ := newTestClient(t)
	assert.Equal(t, "users:session:7", c.Key("session", "7"))

	c.cfg.KeyPrefix = ""
	assert.Equal(t, "session:7", c.Key("session", "7"))
}

// TestClient_HashAndSet 测试哈希与集合命令
func TestClient_HashAndSet(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.Ping(ctx))

	_, err := c.HSet(ctx, "h", "a", "1", "b", "2")
	require.NoError(t, err)

	m, err := c.HGetAll(ctx, "h")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, m)

	empty, err := c.HGetAll(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = mr.SAdd("s", "1", "2", "3")
	require.NoError(t, err)

	n, err := c.SCard(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	members, err := c.SMembers(ctx, "s")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"1", "2", "3"}, members)

	exists, err := c.Exists(ctx, "h", "s", "missing")
	require.NoError(t, err)
	assert.Equal(t, int64(2), exists)

	deleted, err := c.Del(ctx, "h", "missing")
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

// TestClient_Run 测试 Lua 脚本执行
func TestClient_Run(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	incr := NewScript(`return redis.call("INCRBY", KEYS[1], ARGV[1])`)

	n, err := c.RunInt64(ctx, incr, []string{"counter"}, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	n, err = c.RunInt64(ctx, incr, []string{"counter"}, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)

	nilScript := NewScript(`return false`)
	_, err = c.Run(ctx, nilScript, nil)
	assert.ErrorIs(t, err, ErrNil)

	strScript := NewScript(`return "x"`)
	_, err = c.RunInt64(ctx, strScript, nil)
	assert.Error(t, err)
}

// TestClient_PoolStats 测试连接池统计
func TestClient_PoolStats(t *testing.T) {
	c, _ := newTestClient(t)
	require.NoError(t, c.Ping(context.Background()))
	assert.GreaterOrEqual(t, c.PoolStats().TotalConns, uint32(1))
}
