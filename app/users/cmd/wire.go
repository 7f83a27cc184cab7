//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/lk2023060901/xdooria-users/app/users/internal/config"
	"github.com/lk2023060901/xdooria-users/app/users/internal/handler"
	"github.com/lk2023060901/xdooria-users/app/users/internal/manager"
	"github.com/lk2023060901/xdooria-users/pkg/app"
	"github.com/lk2023060901/xdooria-users/pkg/logger"
	"github.com/lk2023060901/xdooria-users/pkg/prometheus"
)

func InitApp(cfg *config.Config, l logger.Logger) (app.Application, func(), error) {
	panic(wire.Build(
		// 1. 基础框架 (BaseApp)
		app.ProviderSet,
		wire.Bind(new(app.Application), new(*app.BaseApp)),

		// 2. 可观测性
		provideTracerProvider,
		provideReporter,
		providePrometheusConfig,
		prometheus.New,
		provideMetrics,

		// 3. 存储
		providePostgres,
		provideRedis,
		provideStores,

		// 4. 业务组件
		provideCounter,
		providePublisher,
		provideAuthenticator,
		provideManagerOptions,
		provideSessionManager,
		provideBuyMenuManager,

		// 5. 接口层
		handler.NewSessionHandler,
		wire.Bind(new(handler.SessionService), new(*manager.SessionManager)),
		handler.NewBuyMenuHandler,
		wire.Bind(new(handler.BuyMenuService), new(*manager.BuyMenuManager)),
		provideSystemHandler,
		provideRateLimiter,
		provideWebServer,

		// 6. 定时任务
		provideResyncJob,

		// 7. 组装与应用配置
		provideAppOptions,
		provideAppComponents,
	))
}
