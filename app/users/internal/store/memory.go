package store

import (
	"context"
	"sync"

	"github.com/lk2023060901/xdooria-users/app/users/internal/model"
)

// MemorySessionStore 基于 map 的会话存储，单进程使用
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[int64]model.Session
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[int64]model.Session)}
}

func (s *MemorySessionStore) InsertUnique(_ context.Context, sess *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sess.UserID]; ok {
		return ErrDuplicate
	}
	s.sessions[sess.UserID] = *sess
	return nil
}

func (s *MemorySessionStore) FindOne(_ context.Context, userID int64) (*model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &sess, nil
}

func (s *MemorySessionStore) UpdateMerge(_ context.Context, userID int64, u *model.SessionUpdate) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[userID]
	if !ok {
		return 0, nil
	}
	sess.Apply(u)
	s.sessions[userID] = sess
	return 1, nil
}

func (s *MemorySessionStore) DeleteOne(_ context.Context, userID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[userID]; !ok {
		return 0, nil
	}
	delete(s.sessions, userID)
	return 1, nil
}

func (s *MemorySessionStore) DeleteMany(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := int64(len(s.sessions))
	s.sessions = make(map[int64]model.Session)
	return n, nil
}

func (s *MemorySessionStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.sessions)), nil
}

// MemoryBuyMenuStore 基于 map 的购买菜单存储
type MemoryBuyMenuStore struct {
	mu    sync.RWMutex
	menus map[int64]*model.BuyMenu
}

func NewMemoryBuyMenuStore() *MemoryBuyMenuStore {
	return &MemoryBuyMenuStore{menus: make(map[int64]*model.BuyMenu)}
}

func (s *MemoryBuyMenuStore) InsertUnique(_ context.Context, b *model.BuyMenu) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.menus[b.UserID]; ok {
		return ErrDuplicate
	}
	s.menus[b.UserID] = b.Clone()
	return nil
}

func (s *MemoryBuyMenuStore) FindOne(_ context.Context, userID int64) (*model.BuyMenu, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.menus[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return b.Clone(), nil
}

func (s *MemoryBuyMenuStore) UpdateMerge(_ context.Context, userID int64, u *model.BuyMenuUpdate) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.menus[userID]
	if !ok {
		return 0, nil
	}
	b.Apply(u)
	return 1, nil
}

func (s *MemoryBuyMenuStore) DeleteOne(_ context.Context, userID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.menus[userID]; !ok {
		return 0, nil
	}
	delete(s.menus, userID)
	return 1, nil
}
