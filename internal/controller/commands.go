package controller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/apecia-org/cabinet-controller/internal/coremodel"
	"github.com/apecia-org/cabinet-controller/internal/protocol/cu48"
)

// OpenFailure 批次内单个柜门的下发失败记录
type OpenFailure struct {
	ID    coremodel.CabinetID
	Error string
}

// OpenResult 开柜批次结果：成功与失败分列，互不影响
type OpenResult struct {
	Opened []coremodel.CabinetID
	Failed []OpenFailure
}

// StatusSnapshot 柜门状态与链路状态的点时快照
type StatusSnapshot struct {
	State    coremodel.ConnectionState
	Device   string
	Fresh    bool
	Cabinets []coremodel.CabinetStatus
}

// OpenCabinets 批量开柜
// 先做整批结构校验，任何一个编号非法都整批拒绝、零写入；
// 校验通过后逐门下发，单门失败记入Failed并继续后续柜门，不作为error返回。
// 相邻下发之间由pacer保证静默时间，锁控板连续收帧会丢指令
func (c *Controller) OpenCabinets(ctx context.Context, ids []int) (OpenResult, error) {
	var result OpenResult

	if len(ids) == 0 {
		return result, ErrEmptyBatch
	}
	batch := make([]coremodel.CabinetID, 0, len(ids))
	for _, raw := range ids {
		id := coremodel.CabinetID(raw)
		if !id.Valid() {
			return result, fmt.Errorf("%w: %d", ErrCabinetID, raw)
		}
		batch = append(batch, id)
	}

	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()

	tr, device, err := c.transmitter()
	if err != nil {
		return result, err
	}

	for _, id := range batch {
		if err := c.pacer.Wait(ctx); err != nil {
			// 调用方取消：已下发的保留在结果里，剩余柜门不再发送
			return result, err
		}

		frame, err := cu48.BuildFrame(c.ins.Open, c.addr, []byte{id.Byte()})
		if err != nil {
			// 单字节payload不可能超限，保留分支以防码表扩展
			result.Failed = append(result.Failed, OpenFailure{ID: id, Error: err.Error()})
			continue
		}

		if err := tr.Write(frame); err != nil {
			te := &TransportError{Op: "write open frame", Device: device, Err: err}
			c.m.SerialWriteTotal.WithLabelValues("error").Inc()
			c.m.CommandTotal.WithLabelValues("open", "error").Inc()
			c.log.Error("open cabinet failed",
				zap.Int("cabinet", int(id)), zap.Error(te))
			result.Failed = append(result.Failed, OpenFailure{ID: id, Error: err.Error()})
			continue
		}

		c.m.SerialWriteTotal.WithLabelValues("ok").Inc()
		c.m.CommandTotal.WithLabelValues("open", "ok").Inc()
		c.markOpened(id)
		result.Opened = append(result.Opened, id)
		c.log.Info("open cabinet issued",
			zap.Int("cabinet", int(id)), zap.String("frame", cu48.HexDump(frame)))
	}
	return result, nil
}

// RequestStatus 下发状态查询并等待应答
// 超时不是错误：返回fresh=false，调用方拿到的仍是上一次的陈旧数据
func (c *Controller) RequestStatus(ctx context.Context) (bool, error) {
	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()

	tr, device, err := c.transmitter()
	if err != nil {
		return false, err
	}

	if err := c.pacer.Wait(ctx); err != nil {
		return false, err
	}

	frame, err := cu48.BuildFrame(c.ins.StatusRequest, c.addr, nil)
	if err != nil {
		return false, err
	}

	waiter := make(chan struct{})
	c.stateMu.Lock()
	c.statusWaiter = waiter
	c.stateMu.Unlock()

	if err := tr.Write(frame); err != nil {
		c.clearWaiter(waiter)
		c.m.SerialWriteTotal.WithLabelValues("error").Inc()
		c.m.CommandTotal.WithLabelValues("status", "error").Inc()
		return false, &TransportError{Op: "write status request", Device: device, Err: err}
	}
	c.m.SerialWriteTotal.WithLabelValues("ok").Inc()

	timer := time.NewTimer(c.protoCfg.StatusTimeout)
	defer timer.Stop()

	select {
	case <-waiter:
		c.m.CommandTotal.WithLabelValues("status", "ok").Inc()
		return true, nil
	case <-timer.C:
		c.clearWaiter(waiter)
		c.m.StatusTimeoutTotal.Inc()
		c.m.CommandTotal.WithLabelValues("status", "timeout").Inc()
		c.log.Warn("status request timed out",
			zap.Duration("timeout", c.protoCfg.StatusTimeout))
		return false, nil
	case <-ctx.Done():
		c.clearWaiter(waiter)
		return false, ctx.Err()
	}
}

// Status 返回状态快照；refresh=true时先触发一轮状态查询
// 查询超时降级为陈旧快照（Fresh=false），链路未连接时refresh才会返回错误
func (c *Controller) Status(ctx context.Context, refresh bool) (StatusSnapshot, error) {
	fresh := false
	if refresh {
		var err error
		fresh, err = c.RequestStatus(ctx)
		if err != nil {
			return StatusSnapshot{}, err
		}
	}

	c.stateMu.RLock()
	snap := StatusSnapshot{
		State:    c.connState,
		Device:   c.activeDevice,
		Fresh:    fresh,
		Cabinets: c.snapshotLocked(),
	}
	c.stateMu.RUnlock()
	if snap.Device == "" {
		snap.Device = c.serialCfg.Device
	}
	return snap, nil
}

// transmitter 返回当前可用的传输与设备路径；未连接或故障时报ErrNotConnected
func (c *Controller) transmitter() (Transport, string, error) {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	if !c.connState.CanTransmit() || c.transport == nil {
		return nil, "", fmt.Errorf("%w: state %s", ErrNotConnected, c.connState)
	}
	return c.transport, c.activeDevice, nil
}

// clearWaiter 撤销状态应答等待；仅当登记的还是同一个waiter时生效
func (c *Controller) clearWaiter(waiter chan struct{}) {
	c.stateMu.Lock()
	if c.statusWaiter == waiter {
		c.statusWaiter = nil
	}
	c.stateMu.Unlock()
}

// IsNotConnected 判断错误是否由链路未连接引起（HTTP层映射503用）
func IsNotConnected(err error) bool {
	return errors.Is(err, ErrNotConnected)
}
