package controller

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	cfgpkg "github.com/apecia-org/cabinet-controller/internal/config"
	"github.com/apecia-org/cabinet-controller/internal/coremodel"
	"github.com/apecia-org/cabinet-controller/internal/metrics"
	"github.com/apecia-org/cabinet-controller/internal/protocol/cu48"
)

// Controller 锁控板控制器
// 持有串口链路、帧重组器和柜门状态表；所有指令下发经由cmdMu串行化，
// 同一时刻线上至多一条在途指令，互斥锁排队顺序即下发顺序
type Controller struct {
	serialCfg cfgpkg.SerialConfig
	protoCfg  cfgpkg.ProtocolConfig
	ins       cu48.InstructionSet
	addr      byte

	log     *zap.Logger
	m       *metrics.AppMetrics
	factory TransportFactory

	// cmdMu 串行化开柜与状态查询；pacer在相邻下发之间留出静默时间
	cmdMu sync.Mutex
	pacer *rate.Limiter

	// stateMu 保护以下全部字段
	stateMu      sync.RWMutex
	connState    coremodel.ConnectionState
	activeDevice string
	transport    Transport
	decoder      *cu48.StreamDecoder
	cabinets     map[coremodel.CabinetID]coremodel.CabinetStatus
	statusWaiter chan struct{}
}

// New 创建控制器；factory为nil时使用真实串口
func New(serialCfg cfgpkg.SerialConfig, protoCfg cfgpkg.ProtocolConfig, ins cu48.InstructionSet,
	log *zap.Logger, m *metrics.AppMetrics, factory TransportFactory) *Controller {
	if factory == nil {
		factory = SerialTransport
	}

	var pacer *rate.Limiter
	if protoCfg.SettleTime > 0 {
		pacer = rate.NewLimiter(rate.Every(protoCfg.SettleTime), 1)
	} else {
		pacer = rate.NewLimiter(rate.Inf, 1)
	}

	c := &Controller{
		serialCfg: serialCfg,
		protoCfg:  protoCfg,
		ins:       ins,
		addr:      byte(protoCfg.Address),
		log:       log,
		m:         m,
		factory:   factory,
		pacer:     pacer,
		connState: coremodel.ConnStateDisconnected,
		cabinets:  make(map[coremodel.CabinetID]coremodel.CabinetStatus),
	}

	for _, warn := range ins.Collisions() {
		// 冲突码表只告警不纠正：开柜语义不明时宁可让现场配置显式修复
		log.Warn("instruction code collision", zap.String("detail", warn))
	}
	return c
}

// Connect 建立串口链路；device/baud非零值时覆盖配置默认
func (c *Controller) Connect(device string, baud int) error {
	c.stateMu.Lock()
	if c.connState == coremodel.ConnStateConnected || c.connState == coremodel.ConnStateConnecting {
		c.stateMu.Unlock()
		return ErrAlreadyConnected
	}

	cfg := c.serialCfg
	if device != "" {
		cfg.Device = device
	}
	if baud > 0 {
		cfg.BaudRate = baud
	}

	tr := c.factory(cfg)
	tr.SetHandler(c.HandleInbound)
	tr.SetErrorHandler(c.onTransportError)
	tr.SetMetricsCallbacks(func(n int) {
		c.m.SerialBytesReceived.Add(float64(n))
	})

	c.connState = coremodel.ConnStateConnecting
	c.activeDevice = cfg.Device
	c.transport = tr
	c.decoder = cu48.NewStreamDecoder(c.protoCfg.MaxBufferBytes)
	c.setStateGaugeLocked()
	c.stateMu.Unlock()

	if err := tr.Open(); err != nil {
		c.stateMu.Lock()
		c.connState = coremodel.ConnStateDisconnected
		c.transport = nil
		c.decoder = nil
		c.setStateGaugeLocked()
		c.stateMu.Unlock()
		c.log.Error("serial connect failed",
			zap.String("device", cfg.Device), zap.Int("baud", cfg.BaudRate), zap.Error(err))
		return &TransportError{Op: "open", Device: cfg.Device, Err: err}
	}

	c.stateMu.Lock()
	if c.transport != tr {
		// Open期间被并发Disconnect撤销
		c.stateMu.Unlock()
		_ = tr.Close()
		return fmt.Errorf("connect cancelled: link closed during open")
	}
	c.connState = coremodel.ConnStateConnected
	c.setStateGaugeLocked()
	c.stateMu.Unlock()

	c.log.Info("serial link connected",
		zap.String("device", cfg.Device), zap.Int("baud", cfg.BaudRate))
	return nil
}

// Disconnect 关闭串口链路；未连接时为幂等空操作
// 不清空柜门状态表，重连后陈旧数据仍可读（由UpdatedAt标识新旧）
func (c *Controller) Disconnect() error {
	c.stateMu.Lock()
	if c.connState == coremodel.ConnStateDisconnected {
		c.stateMu.Unlock()
		return nil
	}
	tr := c.transport
	c.transport = nil
	c.decoder = nil
	c.connState = coremodel.ConnStateDisconnected
	c.setStateGaugeLocked()
	c.stateMu.Unlock()

	var err error
	if tr != nil {
		err = tr.Close()
	}
	c.log.Info("serial link disconnected", zap.String("device", c.activeDevice))
	return err
}

// onTransportError 读循环致命错误：链路置为faulted，后续指令被拒绝，可重新Connect
func (c *Controller) onTransportError(err error) {
	c.stateMu.Lock()
	if c.connState != coremodel.ConnStateConnected && c.connState != coremodel.ConnStateConnecting {
		c.stateMu.Unlock()
		return
	}
	tr := c.transport
	c.transport = nil
	c.decoder = nil
	c.connState = coremodel.ConnStateFaulted
	c.setStateGaugeLocked()
	c.stateMu.Unlock()

	c.log.Error("serial link faulted", zap.String("device", c.activeDevice), zap.Error(err))
	if tr != nil {
		// 回调运行在读循环goroutine上，Close要等读循环退出，必须异步
		go func() { _ = tr.Close() }()
	}
}

// Connection 返回当前链路状态与设备路径
func (c *Controller) Connection() (coremodel.ConnectionState, string) {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	device := c.activeDevice
	if device == "" {
		device = c.serialCfg.Device
	}
	return c.connState, device
}

// ResetStatus 原子清空柜门状态表，不产生任何串口交互
func (c *Controller) ResetStatus() {
	c.stateMu.Lock()
	c.cabinets = make(map[coremodel.CabinetID]coremodel.CabinetStatus)
	c.stateMu.Unlock()
	c.log.Info("cabinet status map cleared")
}

// snapshotLocked 状态表的点时快照，按柜门编号升序
func (c *Controller) snapshotLocked() []coremodel.CabinetStatus {
	out := make([]coremodel.CabinetStatus, 0, len(c.cabinets))
	for _, st := range c.cabinets {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// setStateGaugeLocked 链路状态gauge；调用方须持有stateMu
func (c *Controller) setStateGaugeLocked() {
	var v float64
	switch c.connState {
	case coremodel.ConnStateConnecting:
		v = 1
	case coremodel.ConnStateConnected:
		v = 2
	case coremodel.ConnStateFaulted:
		v = 3
	}
	c.m.ConnectionState.Set(v)
}

// markOpened 开柜指令写入成功后的状态标记
func (c *Controller) markOpened(id coremodel.CabinetID) {
	c.stateMu.Lock()
	c.cabinets[id] = coremodel.CabinetStatus{
		ID:        id,
		State:     coremodel.CabinetStateOpened,
		UpdatedAt: time.Now(),
	}
	c.stateMu.Unlock()
}
