package manager

import (
	"github.com/cockroachdb/errors"
)

// 错误分类，对外只暴露这四类。
// 具体错误通过 errors.Mark 打上分类标记，保留原始错误链用于日志。
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
	ErrNotFound     = errors.New("not found")
	ErrInternal     = errors.New("internal error")
)

// 分类标签，用于指标与日志
const (
	KindOK           = "ok"
	KindInvalidInput = "invalid_input"
	KindConflict     = "conflict"
	KindNotFound     = "not_found"
	KindInternal     = "internal"
)

// Kind 返回错误所属分类，nil 为 ok，未标记的错误按 internal 处理
func Kind(err error) string {
	switch {
	case err == nil:
		return KindOK
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	default:
		return KindInternal
	}
}

func invalidUserID(userID int64) error {
	return errors.Mark(errors.Newf("user id must be positive, got %d", userID), ErrInvalidInput)
}

func conflictf(err error, format string, args ...any) error {
	return errors.Mark(errors.Wrapf(err, format, args...), ErrConflict)
}

func notFoundf(err error, format string, args ...any) error {
	return errors.Mark(errors.Wrapf(err, format, args...), ErrNotFound)
}

func internalf(err error, format string, args ...any) error {
	return errors.Mark(errors.Wrapf(err, format, args...), ErrInternal)
}
