package store

import (
	"context"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/xdooria-users/app/users/internal/model"
	"github.com/lk2023060901/xdooria-users/pkg/database/redis"
)

func newRedisClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := redis.NewClient(&redis.Config{Addrs: []string{mr.Addr()}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

// TestRedisSessionStore 测试 Redis 会话存储
func TestRedisSessionStore(t *testing.T) {
	runSessionStoreContract(t, func(t *testing.T) SessionStore {
		c, _ := newRedisClient(t)
		return NewRedisSessionStore(c)
	})
}

// TestRedisBuyMenuStore 测试 Redis 购买菜单存储
func TestRedisBuyMenuStore(t *testing.T) {
	runBuyMenuStoreContract(t, func(t *testing.T) BuyMenuStore {
		c, _ := newRedisClient(t)
		return NewRedisBuyMenuStore(c)
	})
}

// TestRedisSessionStore_Layout 测试键布局
func TestRedisSessionStore_Layout(t *testing.T) {
	c, mr := newRedisClient(t)
	s := NewRedisSessionStore(c)
	ctx := context.Background()

	require.NoError(t, s.InsertUnique(ctx, model.NewSession(7)))
	assert.True(t, mr.Exists("users:{session}:7"))

	members, err := mr.Members("users:{session}:index")
	require.NoError(t, err)
	assert.Equal(t, []string{"7"}, members)

	_, err = s.DeleteMany(ctx)
	require.NoError(t, err)
	assert.False(t, mr.Exists("users:{session}:7"))
	assert.False(t, mr.Exists("users:{session}:index"))
}

// hashTag 按集群规则取参与 slot 计算的部分
func hashTag(key string) string {
	if i := strings.IndexByte(key, '{'); i >= 0 {
		if j := strings.IndexByte(key[i+1:], '}'); j > 0 {
			return key[i+1 : i+1+j]
		}
	}
	return key
}

// TestHashRecords_SameSlot 测试同一记录集的键共用 hash tag
func TestHashRecords_SameSlot(t *testing.T) {
	for _, prefix := range []string{"users", "{users}", ""} {
		t.Run(prefix, func(t *testing.T) {
			mr := miniredis.RunT(t)
			c, err := redis.NewClient(&redis.Config{Addrs: []string{mr.Addr()}, KeyPrefix: prefix})
			require.NoError(t, err)
			t.Cleanup(func() { _ = c.Close() })

			for _, name := range []string{"session", "buymenu"} {
				h := hashRecords{rdb: c, name: name}
				tag := hashTag(h.index())
				assert.Equal(t, tag, hashTag(h.key(7)))
				assert.Equal(t, tag, hashTag(h.key(1<<40)))
			}

			s := NewRedisSessionStore(c)
			ctx := context.Background()
			require.NoError(t, s.InsertUnique(ctx, model.NewSession(7)))
			n, err := s.DeleteMany(ctx)
			require.NoError(t, err)
			assert.Equal(t, int64(1), n)
			assert.Empty(t, mr.Keys())
		})
	}
}

// TestRedisSessionStore_CorruptField 测试损坏字段
func TestRedisSessionStore_CorruptField(t *testing.T) {
	c, mr := newRedisClient(t)
	s := NewRedisSessionStore(c)
	ctx := context.Background()

	require.NoError(t, s.InsertUnique(ctx, model.NewSession(7)))
	mr.HSet("users:{session}:7", "ext_client_port", "70000")

	_, err := s.FindOne(ctx, 7)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

// TestRedisSessionStore_Unavailable 测试连接失败
func TestRedisSessionStore_Unavailable(t *testing.T) {
	c, mr := newRedisClient(t)
	s := NewRedisSessionStore(c)
	mr.Close()

	err := s.InsertUnique(context.Background(), model.NewSession(1))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrDuplicate)

	_, err = s.Count(context.Background())
	assert.Error(t, err)
}
