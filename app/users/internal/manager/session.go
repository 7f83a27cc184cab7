// Package manager 会话生命周期与购买菜单的业务规则。
//
// 一个用户最多一个会话，唯一性由存储层的原子插入保证，管理器内部不加锁。
// 所有失败都归入 InvalidInput、Conflict、NotFound、Internal 四类之一。
package manager

import (
	"context"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/singleflight"

	"github.com/lk2023060901/xdooria-users/app/users/internal/counter"
	"github.com/lk2023060901/xdooria-users/app/users/internal/event"
	"github.com/lk2023060901/xdooria-users/app/users/internal/model"
	"github.com/lk2023060901/xdooria-users/app/users/internal/store"
)

// 会话操作名
const (
	OpCreate    = "create"
	OpGet       = "get"
	OpUpdate    = "update"
	OpDelete    = "delete"
	OpDeleteAll = "delete_all"
	OpResync    = "resync"
)

// SessionManager 会话生命周期管理
type SessionManager struct {
	instrument
	store     store.SessionStore
	counter   *counter.SessionCounter
	publisher event.Publisher
	resync    singleflight.Group
}

// NewSessionManager 创建会话管理器，publisher 为 nil 时不发送事件
func NewSessionManager(st store.SessionStore, c *counter.SessionCounter, pub event.Publisher, opts ...Option) *SessionManager {
	if pub == nil {
		pub = event.NoopPublisher{}
	}
	return &SessionManager{
		instrument: newInstrument("session", opts),
		store:      st,
		counter:    c,
		publisher:  pub,
	}
}

// Create 为用户创建会话，已存在时返回 ErrConflict
func (m *SessionManager) Create(ctx context.Context, userID int64) (_ *model.Session, err error) {
	ctx, done := m.begin(ctx, OpCreate, userID)
	defer func() { done(err) }()

	if userID <= 0 {
		return nil, invalidUserID(userID)
	}

	sess := model.NewSession(userID)
	if err := m.store.InsertUnique(ctx, sess); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, conflictf(err, "session for user %d already exists", userID)
		}
		return nil, internalf(err, "create session for user %d", userID)
	}

	live := m.counter.Increment()
	m.logger.InfoContext(ctx, "session created", "user_id", userID, "session_id", sess.SessionID, "live", live)
	m.publish(ctx, event.Created(sess))
	return sess, nil
}

// Get 查询用户会话，不存在时返回 ErrNotFound
func (m *SessionManager) Get(ctx context.Context, userID int64) (_ *model.Session, err error) {
	ctx, done := m.begin(ctx, OpGet, userID)
	defer func() { done(err) }()

	if userID <= 0 {
		return nil, invalidUserID(userID)
	}

	sess, err := m.store.FindOne(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFoundf(err, "session for user %d", userID)
		}
		return nil, internalf(err, "get session for user %d", userID)
	}
	return sess, nil
}

// Update 合并更新，返回是否匹配到会话。空更新同样返回会话是否存在
func (m *SessionManager) Update(ctx context.Context, userID int64, u *model.SessionUpdate) (_ bool, err error) {
	ctx, done := m.begin(ctx, OpUpdate, userID)
	defer func() { done(err) }()

	if userID <= 0 {
		return false, invalidUserID(userID)
	}
	if u == nil {
		u = &model.SessionUpdate{}
	}

	matched, err := m.store.UpdateMerge(ctx, userID, u)
	if err != nil {
		return false, internalf(err, "update session for user %d", userID)
	}
	if matched > 0 {
		m.logger.DebugContext(ctx, "session updated", "user_id", userID)
	}
	return matched > 0, nil
}

// Delete 删除会话，返回是否删除了记录
func (m *SessionManager) Delete(ctx context.Context, userID int64) (_ bool, err error) {
	ctx, done := m.begin(ctx, OpDelete, userID)
	defer func() { done(err) }()

	if userID <= 0 {
		return false, invalidUserID(userID)
	}

	n, err := m.store.DeleteOne(ctx, userID)
	if err != nil {
		return false, internalf(err, "delete session for user %d", userID)
	}
	if n == 0 {
		return false, nil
	}

	live := m.counter.Decrement()
	m.logger.InfoContext(ctx, "session deleted", "user_id", userID, "live", live)
	m.publish(ctx, event.Deleted(userID))
	return true, nil
}

// DeleteAll 删除全部会话并将计数归零，返回删除数量。
// 存储失败时计数器保持不变
func (m *SessionManager) DeleteAll(ctx context.Context) (_ int64, err error) {
	ctx, done := m.begin(ctx, OpDeleteAll, 0)
	defer func() { done(err) }()

	n, err := m.store.DeleteMany(ctx)
	if err != nil {
		return 0, internalf(err, "delete all sessions")
	}

	m.counter.Reset()
	m.logger.InfoContext(ctx, "all sessions deleted", "deleted", n)
	m.publish(ctx, event.Cleared(n))
	return n, nil
}

// Count 当前在线会话计数
func (m *SessionManager) Count() int64 {
	return m.counter.Get()
}

// Resync 以存储中的会话数重置计数器，并发调用合并为一次查询
func (m *SessionManager) Resync(ctx context.Context) (_ int64, err error) {
	ctx, done := m.begin(ctx, OpResync, 0)
	defer func() { done(err) }()

	v, err, _ := m.resync.Do(OpResync, func() (any, error) {
		n, err := m.store.Count(ctx)
		if err != nil {
			return int64(0), internalf(err, "count sessions")
		}
		if prev := m.counter.Get(); prev != n {
			m.logger.WarnContext(ctx, "session counter drifted", "counter", prev, "store", n)
		}
		m.counter.Set(n)
		return n, nil
	})
	return v.(int64), err
}

// publish 事件发送失败只记录日志
func (m *SessionManager) publish(ctx context.Context, e *event.Event) {
	if err := m.publisher.Publish(ctx, e); err != nil {
		m.logger.WarnContext(ctx, "publish session event failed", "type", e.Type, "error", err)
	}
}
