package controller

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/apecia-org/cabinet-controller/internal/coremodel"
	"github.com/apecia-org/cabinet-controller/internal/protocol/cu48"
)

// HandleInbound 串口读循环回调：字节流送入重组器，逐帧分发
// 任何输入都不会让控制器崩溃；无效帧只计数丢弃，不改动状态表
func (c *Controller) HandleInbound(p []byte) {
	c.stateMu.Lock()
	if c.decoder == nil {
		// 断开后读循环的尾包，直接丢弃
		c.stateMu.Unlock()
		return
	}
	frames, overflow := c.decoder.Feed(p)
	c.stateMu.Unlock()

	if overflow {
		c.m.DecoderOverflow.Inc()
		c.log.Warn("frame buffer overflow, cleared",
			zap.Int("cap", c.protoCfg.MaxBufferBytes))
	}
	for _, f := range frames {
		c.handleFrame(f)
	}
}

// handleFrame 单帧分发：校验失败丢弃；状态应答合并进状态表；其余指令忽略
func (c *Controller) handleFrame(f *cu48.Frame) {
	if !f.Valid {
		c.m.FrameTotal.WithLabelValues("checksum_error").Inc()
		c.log.Debug("discard invalid frame", zap.String("raw", cu48.HexDump(f.Raw)))
		return
	}

	report, err := cu48.DecodeStatusReport(f, c.ins)
	switch {
	case err == nil:
		c.m.FrameTotal.WithLabelValues("ok").Inc()
		c.applyStatus(report)
	case errors.Is(err, cu48.ErrStatusPayload):
		// 指令码是状态应答但payload不完整：结构错误，绝不做部分合并
		c.m.FrameTotal.WithLabelValues("structural_error").Inc()
		c.log.Warn("malformed status response",
			zap.Int("payloadLen", len(f.Payload)), zap.String("raw", cu48.HexDump(f.Raw)))
	default:
		// 当前协议没有其他上行语义，记录后忽略
		c.m.FrameTotal.WithLabelValues("ok").Inc()
		c.log.Debug("ignore frame",
			zap.Uint8("instr", f.Instr), zap.String("raw", cu48.HexDump(f.Raw)))
	}
}

// applyStatus 将48门位图合并进状态表（按编号覆盖），并唤醒等待中的状态查询
// 主动上报与查询应答走同一条路径
func (c *Controller) applyStatus(r cu48.StatusReport) {
	now := time.Now()
	c.stateMu.Lock()
	for slot := 0; slot < cu48.StatusSlots; slot++ {
		state := coremodel.CabinetStateUnavailable
		if r.Available(slot) {
			state = coremodel.CabinetStateAvailable
		}
		id := coremodel.CabinetID(slot)
		c.cabinets[id] = coremodel.CabinetStatus{ID: id, State: state, UpdatedAt: now}
	}
	if c.statusWaiter != nil {
		close(c.statusWaiter)
		c.statusWaiter = nil
	}
	c.stateMu.Unlock()

	c.log.Debug("status report merged", zap.Int("slots", cu48.StatusSlots))
}
