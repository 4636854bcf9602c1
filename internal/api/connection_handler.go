package api

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/apecia-org/cabinet-controller/internal/controller"
	"github.com/apecia-org/cabinet-controller/internal/coremodel"
)

// ConnectionHandler 串口连接管理API处理器
type ConnectionHandler struct {
	svc    CabinetService
	logger *zap.Logger
}

// NewConnectionHandler 创建串口连接管理API处理器
func NewConnectionHandler(svc CabinetService, logger *zap.Logger) *ConnectionHandler {
	return &ConnectionHandler{
		svc:    svc,
		logger: logger,
	}
}

// connectRequest 建立连接请求体，字段为空时使用配置默认值
type connectRequest struct {
	Device string `json:"device"`
	Baud   int    `json:"baud"`
}

// OpenConnection 建立串口连接
// @Summary 建立串口连接
// @Description 打开串口并启动读取循环，device/baud为空时使用配置默认值
// @Tags connection
// @Accept json
// @Produce json
// @Param request body connectRequest false "串口参数"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Failure 502 {object} map[string]interface{}
// @Router /api/connection/open [post]
func (h *ConnectionHandler) OpenConnection(c *gin.Context) {
	var req connectRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(400, gin.H{"error": "invalid request body"})
			return
		}
	}

	if err := h.svc.Connect(req.Device, req.Baud); err != nil {
		var te *controller.TransportError
		switch {
		case errors.Is(err, controller.ErrAlreadyConnected):
			c.JSON(409, gin.H{"error": err.Error()})
		case errors.As(err, &te):
			h.logger.Warn("serial connect failed",
				zap.String("device", te.Device),
				zap.Error(err))
			c.JSON(502, gin.H{"error": err.Error()})
		default:
			c.JSON(500, gin.H{"error": err.Error()})
		}
		return
	}

	state, device := h.svc.Connection()
	c.JSON(200, gin.H{
		"state":  state,
		"device": device,
	})
}

// CloseConnection 断开串口连接
// @Summary 断开串口连接
// @Description 关闭串口，已缓存的柜格状态保留
// @Tags connection
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/connection/close [post]
func (h *ConnectionHandler) CloseConnection(c *gin.Context) {
	if err := h.svc.Disconnect(); err != nil {
		h.logger.Warn("serial disconnect failed", zap.Error(err))
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}

	state, device := h.svc.Connection()
	c.JSON(200, gin.H{
		"state":  state,
		"device": device,
	})
}

// GetConnection 查询连接状态
// @Summary 查询连接状态
// @Tags connection
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/connection [get]
func (h *ConnectionHandler) GetConnection(c *gin.Context) {
	state, device := h.svc.Connection()
	c.JSON(200, gin.H{
		"state":     state,
		"device":    device,
		"connected": state == coremodel.ConnStateConnected,
	})
}
