package store

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/xdooria-users/app/users/internal/model"
)

func ptr[T any](v T) *T { return &v }

// runSessionStoreContract 所有会话存储实现共享的行为约束
func runSessionStoreContract(t *testing.T, newStore func(t *testing.T) SessionStore) {
	ctx := context.Background()

	t.Run("insert and find", func(t *testing.T) {
		s := newStore(t)
		sess := model.NewSession(7)
		sess.ExternalNet.IPAddress = "1.2.3.4"
		require.NoError(t, s.InsertUnique(ctx, sess))

		got, err := s.FindOne(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, sess, got)

		assert.ErrorIs(t, s.InsertUnique(ctx, model.NewSession(7)), ErrDuplicate)

		_, err = s.FindOne(ctx, 8)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("update merges sub fields", func(t *testing.T) {
		s := newStore(t)
		sess := model.NewSession(7)
		sess.ExternalNet = model.NetInfo{IPAddress: "1.2.3.4", ClientPort: 1, ServerPort: 2, TVPort: 3}
		sess.InternalNet = model.NetInfo{IPAddress: "10.0.0.1", ClientPort: 4, ServerPort: 5, TVPort: 6}
		sess.CurrentChannelIndex = 9
		require.NoError(t, s.InsertUnique(ctx, sess))

		n, err := s.UpdateMerge(ctx, 7, &model.SessionUpdate{
			ExternalNet:   &model.NetInfoUpdate{ClientPort: ptr[uint16](27015)},
			CurrentRoomID: ptr[int32](323),
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		got, err := s.FindOne(ctx, 7)
		require.NoError(t, err)
		want := *sess
		want.ExternalNet.ClientPort = 27015
		want.CurrentRoomID = 323
		assert.Equal(t, &want, got)

		n, err = s.UpdateMerge(ctx, 7, &model.SessionUpdate{})
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		n, err = s.UpdateMerge(ctx, 8, &model.SessionUpdate{CurrentRoomID: ptr[int32](1)})
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("delete and count", func(t *testing.T) {
		s := newStore(t)
		for id := int64(1); id <= 3; id++ {
			require.NoError(t, s.InsertUnique(ctx, model.NewSession(id)))
		}

		n, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)

		n, err = s.DeleteOne(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		n, err = s.DeleteOne(ctx, 2)
		require.NoError(t, err)
		assert.Zero(t, n)

		n, err = s.DeleteMany(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		n, err = s.Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)

		n, err = s.DeleteMany(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("concurrent insert same user", func(t *testing.T) {
		s := newStore(t)
		const workers = 32

		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			success  int
			conflict int
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := s.InsertUnique(ctx, model.NewSession(42))
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					success++
				case assert.ErrorIs(t, err, ErrDuplicate):
					conflict++
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, success)
		assert.Equal(t, workers-1, conflict)

		n, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})
}

// runBuyMenuStoreContract 所有购买菜单存储实现共享的行为约束
func runBuyMenuStoreContract(t *testing.T, newStore func(t *testing.T) BuyMenuStore) {
	ctx := context.Background()
	s := newStore(t)

	menu := model.DefaultBuyMenu(5)
	require.NoError(t, s.InsertUnique(ctx, menu))
	assert.ErrorIs(t, s.InsertUnique(ctx, model.DefaultBuyMenu(5)), ErrDuplicate)

	got, err := s.FindOne(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, menu, got)

	n, err := s.UpdateMerge(ctx, 5, &model.BuyMenuUpdate{Rifles: []int{1, 2, 3}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err = s.FindOne(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, got.Rifles)
	assert.Equal(t, menu.Pistols, got.Pistols)

	n, err = s.UpdateMerge(ctx, 6, &model.BuyMenuUpdate{Rifles: []int{1}})
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = s.DeleteOne(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = s.FindOne(ctx, 5)
	assert.ErrorIs(t, err, ErrNotFound)
}

// TestMemorySessionStore 测试内存会话存储
func TestMemorySessionStore(t *testing.T) {
	runSessionStoreContract(t, func(t *testing.T) SessionStore {
		return NewMemorySessionStore()
	})
}

// TestMemoryBuyMenuStore 测试内存购买菜单存储
func TestMemoryBuyMenuStore(t *testing.T) {
	runBuyMenuStoreContract(t, func(t *testing.T) BuyMenuStore {
		return NewMemoryBuyMenuStore()
	})
}

// TestMemorySessionStore_Isolation 测试返回值与内部状态隔离
func TestMemorySessionStore_Isolation(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySessionStore()
	require.NoError(t, s.InsertUnique(ctx, model.NewSession(1)))

	got, err := s.FindOne(ctx, 1)
	require.NoError(t, err)
	got.CurrentRoomID = 99

	again, err := s.FindOne(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, again.CurrentRoomID)
}

// TestNew 测试按驱动创建存储
func TestNew(t *testing.T) {
	ss, bs, err := New(&Config{Driver: DriverMemory}, nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &MemorySessionStore{}, ss)
	assert.IsType(t, &MemoryBuyMenuStore{}, bs)

	_, _, err = New(&Config{Driver: DriverPostgres}, nil, nil)
	assert.Error(t, err)

	_, _, err = New(&Config{Driver: DriverRedis}, nil, nil)
	assert.Error(t, err)

	_, _, err = New(&Config{Driver: "mongo"}, nil, nil)
	assert.Error(t, err)
}
