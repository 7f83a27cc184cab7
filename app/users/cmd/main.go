package main

import (
	"github.com/lk2023060901/xdooria-users/app/users/internal/config"
	"github.com/lk2023060901/xdooria-users/pkg/logger"
)

func main() {
	// 1. 加载并校验配置
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	// 2. 初始化主日志
	l, err := logger.New(&cfg.Log)
	if err != nil {
		panic(err)
	}

	// 3. 通过 Wire 初始化应用
	application, cleanup, err := InitApp(cfg, l)
	if err != nil {
		l.Error("failed to initialize application", "error", err)
		return
	}
	defer cleanup()

	// 4. 运行服务
	if err := application.Run(); err != nil {
		l.Error("application exited with error", "error", err)
	}
}
