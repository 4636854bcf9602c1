package main

import (
	"go.uber.org/zap"

	"github.com/apecia-org/cabinet-controller/internal/app/bootstrap"
	cfgpkg "github.com/apecia-org/cabinet-controller/internal/config"
	"github.com/apecia-org/cabinet-controller/internal/logging"
)

func main() {
	// 1) 加载配置
	cfg, err := cfgpkg.Load("")
	if err != nil {
		panic(err)
	}

	// 2) 初始化日志
	logger, err := logging.InitLogger(cfg.Logging)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	// 3) 启动服务
	if err := bootstrap.Run(cfg, zap.L()); err != nil {
		logger.Fatal("server exited with error", zap.Error(err))
	}
}
