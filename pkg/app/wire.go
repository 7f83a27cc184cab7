package app

import (
	"github.com/google/wire"
)

// AppComponents 收集 Wire 注入的组件
type AppComponents struct {
	Servers []Server
	Closers []Closer
}

// ProviderSet 导出给 Wire 使用
var ProviderSet = wire.NewSet(
	NewBaseApp,
	InitApp,
)

// InitApp 将组件绑定到 BaseApp
func InitApp(app *BaseApp, comps AppComponents) *BaseApp {
	app.AppendServer(comps.Servers...)
	app.AppendCloser(comps.Closers...)
	return app
}

// CloserFunc 函数式 Closer
type CloserFunc func() error

func (f CloserFunc) Close() error {
	return f()
}

// MapCloser 将带 Close() error 的对象转换为 Closer
func MapCloser(c interface{ Close() error }) Closer {
	return CloserFunc(c.Close)
}

// MapCloserNoErr 适配 Close() 无返回值的对象，如 redis 之外的某些客户端
func MapCloserNoErr(c interface{ Close() }) Closer {
	return CloserFunc(func() error {
		c.Close()
		return nil
	})
}
