package manager

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/xdooria-users/app/users/internal/model"
	"github.com/lk2023060901/xdooria-users/app/users/internal/store"
)

// BuyMenuManager 购买菜单管理
type BuyMenuManager struct {
	instrument
	store store.BuyMenuStore
}

func NewBuyMenuManager(st store.BuyMenuStore, opts ...Option) *BuyMenuManager {
	return &BuyMenuManager{
		instrument: newInstrument("buymenu", opts),
		store:      st,
	}
}

// Create 以默认配置创建购买菜单
func (m *BuyMenuManager) Create(ctx context.Context, userID int64) (_ *model.BuyMenu, err error) {
	ctx, done := m.begin(ctx, OpCreate, userID)
	defer func() { done(err) }()

	if userID <= 0 {
		return nil, invalidUserID(userID)
	}

	menu := model.DefaultBuyMenu(userID)
	if err := m.store.InsertUnique(ctx, menu); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, conflictf(err, "buy menu for user %d already exists", userID)
		}
		return nil, internalf(err, "create buy menu for user %d", userID)
	}
	return menu, nil
}

func (m *BuyMenuManager) Get(ctx context.Context, userID int64) (_ *model.BuyMenu, err error) {
	ctx, done := m.begin(ctx, OpGet, userID)
	defer func() { done(err) }()

	if userID <= 0 {
		return nil, invalidUserID(userID)
	}

	menu, err := m.store.FindOne(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFoundf(err, "buy menu for user %d", userID)
		}
		return nil, internalf(err, "get buy menu for user %d", userID)
	}
	return menu, nil
}

// Update 替换提供的子菜单，返回是否匹配到记录
func (m *BuyMenuManager) Update(ctx context.Context, userID int64, u *model.BuyMenuUpdate) (_ bool, err error) {
	ctx, done := m.begin(ctx, OpUpdate, userID)
	defer func() { done(err) }()

	if userID <= 0 {
		return false, invalidUserID(userID)
	}
	if u == nil {
		u = &model.BuyMenuUpdate{}
	}

	matched, err := m.store.UpdateMerge(ctx, userID, u)
	if err != nil {
		return false, internalf(err, "update buy menu for user %d", userID)
	}
	return matched > 0, nil
}

func (m *BuyMenuManager) Delete(ctx context.Context, userID int64) (_ bool, err error) {
	ctx, done := m.begin(ctx, OpDelete, userID)
	defer func() { done(err) }()

	if userID <= 0 {
		return false, invalidUserID(userID)
	}

	n, err := m.store.DeleteOne(ctx, userID)
	if err != nil {
		return false, internalf(err, "delete buy menu for user %d", userID)
	}
	return n > 0, nil
}
