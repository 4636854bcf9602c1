// Package bootstrap 统一编排服务启动与关闭
package bootstrap

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/apecia-org/cabinet-controller/internal/api"
	cfgpkg "github.com/apecia-org/cabinet-controller/internal/config"
	"github.com/apecia-org/cabinet-controller/internal/controller"
	"github.com/apecia-org/cabinet-controller/internal/httpserver"
	"github.com/apecia-org/cabinet-controller/internal/metrics"
	"github.com/apecia-org/cabinet-controller/internal/protocol/cu48"
)

// Run 统一启动流程，阻塞直到收到退出信号
func Run(cfg *cfgpkg.Config, log *zap.Logger) error {
	log.Info("starting cabinet controller",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env))

	// ========== 阶段1: 初始化指标 ==========
	reg := metrics.NewRegistry()
	appm := metrics.NewAppMetrics(reg)
	var metricsHandler http.Handler
	if cfg.Metrics.Enable {
		metricsHandler = metrics.Handler(reg)
	}

	// ========== 阶段2: 加载指令码表 ==========
	ins := cu48.DefaultInstructionSet()
	if cfg.Protocol.InstructionMapPath != "" {
		loaded, err := cu48.LoadInstructionSet(cfg.Protocol.InstructionMapPath)
		if err != nil {
			log.Error("load instruction map failed",
				zap.String("path", cfg.Protocol.InstructionMapPath),
				zap.Error(err))
			return err
		}
		ins = loaded
		log.Info("instruction map loaded",
			zap.String("path", cfg.Protocol.InstructionMapPath))
	}

	// ========== 阶段3: 创建串口控制器 ==========
	ctrl := controller.New(cfg.Serial, cfg.Protocol, ins, log, appm, nil)
	log.Info("cabinet controller initialized",
		zap.String("device", cfg.Serial.Device),
		zap.Int("baudRate", cfg.Serial.BaudRate))

	// ========== 阶段4: 启动HTTP服务（非阻塞）==========
	httpSrv := httpserver.New(cfg.HTTP, cfg.Metrics.Path, metricsHandler, func() bool { return true })
	httpSrv.Register(func(r *gin.Engine) {
		api.RegisterCabinetRoutes(r, ctrl, log)
	})

	go func() {
		if err := httpSrv.Start(); err != nil {
			log.Error("http server error", zap.Error(err))
		}
	}()
	log.Info("http server started", zap.String("addr", cfg.HTTP.Addr))

	// ========== 阶段5: 按配置自动连接串口 ==========
	// 自动连接失败不阻止启动，设备可能尚未插入，之后可经API重连
	if cfg.Serial.AutoConnect {
		if err := ctrl.Connect("", 0); err != nil {
			log.Warn("serial auto connect failed",
				zap.String("device", cfg.Serial.Device),
				zap.Error(err))
		} else {
			log.Info("serial connected", zap.String("device", cfg.Serial.Device))
		}
	}

	// ========== 阶段6: 等待关闭信号 ==========
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("received shutdown signal, gracefully shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpSrv.Shutdown(ctx)
	log.Info("http server stopped")

	if err := ctrl.Disconnect(); err != nil {
		log.Warn("serial disconnect failed", zap.Error(err))
	}
	log.Info("serial link closed")

	log.Info("shutdown complete")
	return nil
}
