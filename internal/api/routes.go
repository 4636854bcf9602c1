package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/apecia-org/cabinet-controller/internal/api/middleware"
)

// RegisterCabinetRoutes 注册柜控与连接管理路由
func RegisterCabinetRoutes(r *gin.Engine, svc CabinetService, logger *zap.Logger) {
	if r == nil || svc == nil {
		return
	}

	cabinets := NewCabinetHandler(svc, logger)
	conn := NewConnectionHandler(svc, logger)

	api := r.Group("/api")
	api.Use(middleware.RequestLog(logger))

	// 柜体控制
	api.POST("/cabinets/open", cabinets.OpenCabinets)
	api.GET("/cabinets/status", cabinets.GetStatus)
	api.POST("/cabinets/reset", cabinets.ResetStatus)

	// 串口连接管理
	api.POST("/connection/open", conn.OpenConnection)
	api.POST("/connection/close", conn.CloseConnection)
	api.GET("/connection", conn.GetConnection)

	logger.Info("cabinet routes registered", zap.Int("endpoints", 6))
}
