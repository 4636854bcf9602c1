// Package api 提供HTTP API处理器
package api

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/apecia-org/cabinet-controller/internal/controller"
	"github.com/apecia-org/cabinet-controller/internal/coremodel"
)

// CabinetService 柜控服务能力，由controller.Controller实现
type CabinetService interface {
	OpenCabinets(ctx context.Context, ids []int) (controller.OpenResult, error)
	Status(ctx context.Context, refresh bool) (controller.StatusSnapshot, error)
	ResetStatus()
	Connect(device string, baud int) error
	Disconnect() error
	Connection() (coremodel.ConnectionState, string)
}

// CabinetHandler 柜体控制API处理器
type CabinetHandler struct {
	svc    CabinetService
	logger *zap.Logger
}

// NewCabinetHandler 创建柜体控制API处理器
func NewCabinetHandler(svc CabinetService, logger *zap.Logger) *CabinetHandler {
	return &CabinetHandler{
		svc:    svc,
		logger: logger,
	}
}

// openRequest 开柜请求体
type openRequest struct {
	IDs []int `json:"ids"`
}

// OpenCabinets 批量开柜
// @Summary 批量开柜
// @Description 按顺序向柜体下发开柜指令，返回成功与失败明细
// @Tags cabinets
// @Accept json
// @Produce json
// @Param request body openRequest true "柜格编号列表"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /api/cabinets/open [post]
func (h *CabinetHandler) OpenCabinets(c *gin.Context) {
	var req openRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "invalid request body"})
		return
	}

	result, err := h.svc.OpenCabinets(c.Request.Context(), req.IDs)
	if err != nil {
		switch {
		case errors.Is(err, controller.ErrEmptyBatch) || errors.Is(err, controller.ErrCabinetID):
			c.JSON(400, gin.H{"error": err.Error()})
		case controller.IsNotConnected(err):
			c.JSON(503, gin.H{"error": err.Error()})
		default:
			// 批次中途失败时仍返回已完成部分，调用方可据此重试剩余柜格
			h.logger.Warn("open cabinets aborted",
				zap.Ints("ids", req.IDs),
				zap.Error(err))
			c.JSON(500, gin.H{
				"error":  err.Error(),
				"opened": openedList(result),
				"failed": failedList(result),
			})
		}
		return
	}

	c.JSON(200, gin.H{
		"opened": openedList(result),
		"failed": failedList(result),
	})
}

// GetStatus 查询柜格状态
// @Summary 查询柜格状态
// @Description 返回全部柜格状态快照，fresh=1时先向柜体请求一次最新状态
// @Tags cabinets
// @Produce json
// @Param fresh query string false "是否请求最新状态(1/true)"
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /api/cabinets/status [get]
func (h *CabinetHandler) GetStatus(c *gin.Context) {
	refresh := false
	switch c.Query("fresh") {
	case "1", "true":
		refresh = true
	}

	snap, err := h.svc.Status(c.Request.Context(), refresh)
	if err != nil {
		if controller.IsNotConnected(err) {
			c.JSON(503, gin.H{"error": err.Error()})
			return
		}
		h.logger.Warn("status query failed", zap.Error(err))
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}

	cabinets := make([]gin.H, 0, len(snap.Cabinets))
	for _, cab := range snap.Cabinets {
		cabinets = append(cabinets, gin.H{
			"id":        cab.ID,
			"state":     cab.State,
			"updatedAt": formatTime(cab.UpdatedAt),
		})
	}

	c.JSON(200, gin.H{
		"connected": snap.State == coremodel.ConnStateConnected,
		"state":     snap.State,
		"device":    snap.Device,
		"fresh":     snap.Fresh,
		"cabinets":  cabinets,
	})
}

// ResetStatus 清空本地状态缓存
// @Summary 清空本地状态缓存
// @Description 丢弃已缓存的柜格状态，不向柜体发送任何指令
// @Tags cabinets
// @Success 204
// @Router /api/cabinets/reset [post]
func (h *CabinetHandler) ResetStatus(c *gin.Context) {
	h.svc.ResetStatus()
	c.Status(204)
}

// openedList 提取成功柜格编号，保证JSON中输出[]而非null
func openedList(result controller.OpenResult) []int {
	out := make([]int, 0, len(result.Opened))
	for _, id := range result.Opened {
		out = append(out, int(id))
	}
	return out
}

// failedList 提取失败明细
func failedList(result controller.OpenResult) []gin.H {
	failed := make([]gin.H, 0, len(result.Failed))
	for _, f := range result.Failed {
		failed = append(failed, gin.H{
			"id":    int(f.ID),
			"error": f.Error,
		})
	}
	return failed
}

// formatTime 序列化状态时间戳，零值输出null
func formatTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.Format(time.RFC3339Nano)
}
